// internal/storage/memory/memory_test.go
package memory

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scanbots/arena/internal/config"
	"github.com/scanbots/arena/internal/storage/storagetest"
)

func TestNew(t *testing.T) {
	cfg := config.MemoryConfig{
		OutputDir:      "/tmp/test",
		CompressOutput: true,
	}
	b := New(cfg)

	if b == nil {
		t.Fatal("New returned nil")
	}
	if b.cfg.OutputDir != "/tmp/test" {
		t.Errorf("expected OutputDir=/tmp/test, got %s", b.cfg.OutputDir)
	}
	if !b.cfg.CompressOutput {
		t.Error("expected CompressOutput=true")
	}
	if b.battles == nil {
		t.Error("battles map not initialized")
	}
	if b.pending == nil {
		t.Error("pending queue not initialized")
	}
}

func TestInitAndClose(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})

	if err := b.Init(); err != nil {
		t.Errorf("Init failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestSuite(t *testing.T) {
	storagetest.RunSuite(t, func(t *testing.T) storagetest.Backend {
		b := New(config.MemoryConfig{OutputDir: t.TempDir(), CompressOutput: true})
		if err := b.Init(); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		t.Cleanup(func() { b.Close() })
		return b
	})
}

func TestRecordBattle_RejectsMissingID(t *testing.T) {
	b := New(config.MemoryConfig{})

	if err := b.RecordBattle(nil); err == nil {
		t.Error("expected error for nil record")
	}
	rec := storagetest.Record(t, "no-id", time.Now())
	rec.BattleID = ""
	if err := b.RecordBattle(rec); err == nil {
		t.Error("expected error for empty battle id")
	}
}

func TestRecordBattle_StoresCopy(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	rec := storagetest.Record(t, "copy", time.Now())

	if err := b.RecordBattle(rec); err != nil {
		t.Fatalf("RecordBattle failed: %v", err)
	}
	rec.ViewerID = "changed"

	got, err := b.LoadBattle(rec.BattleID)
	if err != nil {
		t.Fatalf("LoadBattle failed: %v", err)
	}
	if got.ViewerID != "bot-a" {
		t.Errorf("expected stored viewer bot-a, got %s", got.ViewerID)
	}
}

func TestFlush_WritesOneFilePerBattle(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true})

	for _, seed := range []string{"flush-a", "flush-b"} {
		if err := b.RecordBattle(storagetest.Record(t, seed, time.Now())); err != nil {
			t.Fatalf("RecordBattle failed: %v", err)
		}
	}
	if b.Pending() != 2 {
		t.Errorf("expected 2 pending, got %d", b.Pending())
	}

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if b.Pending() != 0 {
		t.Errorf("expected 0 pending after flush, got %d", b.Pending())
	}

	files := b.ExportedFiles()
	if len(files) != 2 {
		t.Fatalf("expected 2 exported files, got %d", len(files))
	}
	for _, f := range files {
		if !strings.HasSuffix(f, ".json.gz") {
			t.Errorf("expected .json.gz suffix, got %s", f)
		}
		if filepath.Dir(f) != dir {
			t.Errorf("expected file in %s, got %s", dir, f)
		}
	}

	// Nothing new to write
	if err := b.Flush(); err != nil {
		t.Fatalf("second Flush failed: %v", err)
	}
	if len(b.ExportedFiles()) != 2 {
		t.Errorf("expected no new files, got %d", len(b.ExportedFiles()))
	}
}

func TestLoadBattle_FromExportedFile(t *testing.T) {
	for _, compress := range []bool{true, false} {
		dir := t.TempDir()
		writer := New(config.MemoryConfig{OutputDir: dir, CompressOutput: compress})
		rec := storagetest.Record(t, "reload", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
		if err := writer.RecordBattle(rec); err != nil {
			t.Fatalf("RecordBattle failed: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		// A fresh backend, as in a later process, reads the file.
		reader := New(config.MemoryConfig{OutputDir: dir, CompressOutput: !compress})
		got, err := reader.LoadBattle(rec.BattleID)
		if err != nil {
			t.Fatalf("compress=%v: LoadBattle failed: %v", compress, err)
		}
		if got.Result.WinnerID != rec.Result.WinnerID {
			t.Errorf("compress=%v: expected winner %s, got %s", compress, rec.Result.WinnerID, got.Result.WinnerID)
		}
		if len(got.Events) != len(rec.Events) {
			t.Errorf("compress=%v: expected %d events, got %d", compress, len(rec.Events), len(got.Events))
		}
	}
}

func TestLoadBattle_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := b.LoadBattle("broken"); err == nil {
		t.Error("expected decode error")
	}
}

func TestFlush_BadOutputDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	b := New(config.MemoryConfig{OutputDir: filepath.Join(file, "sub")})
	if err := b.RecordBattle(storagetest.Record(t, "bad-dir", time.Now())); err != nil {
		t.Fatal(err)
	}

	if err := b.Flush(); err == nil {
		t.Error("expected error creating output directory")
	}
}

func TestFlush_FailureKeepsRecordsQueued(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	b := New(config.MemoryConfig{OutputDir: blocker})
	for _, seed := range []string{"retry-a", "retry-b"} {
		if err := b.RecordBattle(storagetest.Record(t, seed, time.Now())); err != nil {
			t.Fatal(err)
		}
	}

	if err := b.Flush(); err == nil {
		t.Fatal("expected export error")
	}
	if b.Pending() != 2 {
		t.Fatalf("expected 2 pending after failed flush, got %d", b.Pending())
	}

	b.cfg.OutputDir = filepath.Join(root, "replays")
	if err := b.Flush(); err != nil {
		t.Fatalf("retry Flush failed: %v", err)
	}
	if b.Pending() != 0 {
		t.Errorf("expected 0 pending, got %d", b.Pending())
	}
	if len(b.ExportedFiles()) != 2 {
		t.Errorf("expected both battles exported on retry, got %v", b.ExportedFiles())
	}
}

func TestFlush_ReplacedRecordExportedOnce(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	first := storagetest.Record(t, "twice", time.Now())
	second := storagetest.Record(t, "twice", time.Now())
	second.ViewerID = "bot-b"

	if err := b.RecordBattle(first); err != nil {
		t.Fatal(err)
	}
	if err := b.RecordBattle(second); err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if len(b.ExportedFiles()) != 1 {
		t.Fatalf("expected 1 exported file, got %v", b.ExportedFiles())
	}

	got, err := New(config.MemoryConfig{OutputDir: dir}).LoadBattle(first.BattleID)
	if err != nil {
		t.Fatalf("LoadBattle failed: %v", err)
	}
	if got.ViewerID != "bot-b" {
		t.Errorf("expected the replacement on disk, got viewer %s", got.ViewerID)
	}
}

func TestFileName_Sanitizes(t *testing.T) {
	b := New(config.MemoryConfig{})
	if got := b.fileName("a/b:c d"); got != "a_b_c_d.json" {
		t.Errorf("unexpected file name %s", got)
	}
}

func TestConcurrentRecord(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	rec := storagetest.Record(t, "concurrent", time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := *rec
			r.BattleID = rec.BattleID + "-" + string(rune('a'+i))
			if err := b.RecordBattle(&r); err != nil {
				t.Errorf("RecordBattle failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	list, err := b.ListBattles(0)
	if err != nil {
		t.Fatalf("ListBattles failed: %v", err)
	}
	if len(list) != 20 {
		t.Errorf("expected 20 battles, got %d", len(list))
	}
}

// shortWriter accepts the first write and fails every later one.
type shortWriter struct{ writes int }

func (w *shortWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > 1 {
		return 0, errors.New("disk full")
	}
	return len(p), nil
}

func TestEncodeGzip_ReportsFooterFailure(t *testing.T) {
	rec := storagetest.Record(t, "footer", time.Now())

	// The gzip header is written eagerly; the body and footer only on Close.
	if err := encodeGzip(&shortWriter{}, ReplayExport{Version: exportVersion, Battle: rec}); err == nil {
		t.Error("expected error when the gzip stream cannot be finished")
	}

	var buf bytes.Buffer
	if err := encodeGzip(&buf, ReplayExport{Version: exportVersion, Battle: rec}); err != nil {
		t.Fatalf("encodeGzip failed: %v", err)
	}
	zr, err := gzip.NewReader(&buf)
	if err != nil {
		t.Fatalf("gzip header: %v", err)
	}
	if _, err := io.ReadAll(zr); err != nil {
		t.Errorf("expected a complete gzip stream, got %v", err)
	}
}

// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scanbots/arena/pkg/core"
)

const exportVersion = 1

// ReplayExport is the root JSON structure of a replay file.
type ReplayExport struct {
	Version int                `json:"version"`
	Battle  *core.BattleRecord `json:"battle"`
}

// fileName maps a battle id to its replay file name.
func (b *Backend) fileName(battleID string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_").Replace(battleID)
	if b.cfg.CompressOutput {
		return name + ".json.gz"
	}
	return name + ".json"
}

// writeExport writes one battle to the output directory.
func (b *Backend) writeExport(rec *core.BattleRecord) (string, error) {
	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, b.fileName(rec.BattleID))
	export := ReplayExport{Version: exportVersion, Battle: rec}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

// readExport loads a replay file written by writeExport. Both compressed
// and plain files are tried.
func (b *Backend) readExport(battleID string) (*core.BattleRecord, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(b.fileName(battleID), ".gz"), ".json")
	for _, name := range []string{base + ".json.gz", base + ".json"} {
		rec, err := readFile(filepath.Join(b.cfg.OutputDir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, fmt.Errorf("%w: %s", core.ErrBattleNotFound, battleID)
}

func readFile(path string) (*core.BattleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var export ReplayExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if export.Battle == nil {
		return nil, fmt.Errorf("replay file %s has no battle", path)
	}
	return export.Battle, nil
}

func writeJSON(path string, data ReplayExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeGzipJSON(path string, data ReplayExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := encodeGzip(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// encodeGzip writes data as gzipped JSON. Close writes the gzip footer, so
// its error is the write's error.
func encodeGzip(w io.Writer, data ReplayExport) error {
	gzWriter := gzip.NewWriter(w)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("finishing gzip stream: %w", err)
	}
	return nil
}

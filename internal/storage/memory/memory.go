// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"slices"
	"sync"

	"github.com/scanbots/arena/internal/config"
	"github.com/scanbots/arena/internal/queue"
	"github.com/scanbots/arena/pkg/core"
)

// Backend keeps battles in memory and exports each one to a JSON replay
// file on Flush or Close.
type Backend struct {
	cfg config.MemoryConfig

	battles map[string]*core.BattleRecord // keyed by BattleID
	order   []string                       // insertion order
	pending *queue.Queue[*core.BattleRecord]

	exported []string
	mu       sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		battles: make(map[string]*core.BattleRecord),
		pending: queue.New[*core.BattleRecord](),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports any battles not yet written.
func (b *Backend) Close() error {
	return b.Flush()
}

// RecordBattle stores a copy of the battle and queues it for export.
func (b *Backend) RecordBattle(r *core.BattleRecord) error {
	if r == nil || r.BattleID == "" {
		return fmt.Errorf("memory backend: battle record without id")
	}
	rec := *r

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.battles[rec.BattleID]; ok {
		b.order = slices.DeleteFunc(b.order, func(id string) bool { return id == rec.BattleID })
	}
	b.battles[rec.BattleID] = &rec
	b.order = append(b.order, rec.BattleID)
	b.pending.Push(&rec)
	return nil
}

// LoadBattle returns a recorded battle. Battles exported by an earlier
// process are read back from the output directory.
func (b *Backend) LoadBattle(battleID string) (*core.BattleRecord, error) {
	b.mu.RLock()
	rec, ok := b.battles[battleID]
	b.mu.RUnlock()
	if ok {
		out := *rec
		return &out, nil
	}
	return b.readExport(battleID)
}

// ListBattles returns summaries of battles recorded by this backend, newest first.
func (b *Backend) ListBattles(limit int) ([]core.BattleSummary, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.BattleSummary, 0, len(b.order))
	for i := len(b.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, b.battles[b.order[i]].Summary())
	}
	return out, nil
}

// Flush writes every queued battle to the output directory. A record
// replaced before it was written is skipped in favour of its replacement.
// On a write error the failed record and everything after it stay queued.
func (b *Backend) Flush() error {
	batch := b.pending.Drain()
	for i, rec := range batch {
		if b.superseded(rec) {
			continue
		}
		path, err := b.writeExport(rec)
		if err != nil {
			b.pending.PushFront(batch[i:]...)
			return fmt.Errorf("exporting battle %s: %w", rec.BattleID, err)
		}
		b.mu.Lock()
		if !slices.Contains(b.exported, path) {
			b.exported = append(b.exported, path)
		}
		b.mu.Unlock()
	}
	return nil
}

func (b *Backend) superseded(rec *core.BattleRecord) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.battles[rec.BattleID] != rec
}

// ExportedFiles returns the paths written so far.
func (b *Backend) ExportedFiles() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.exported)
}

// Pending returns the number of battles waiting for export.
func (b *Backend) Pending() int {
	return b.pending.Len()
}

// internal/storage/storage.go
package storage

import "github.com/scanbots/arena/pkg/core"

// ErrNotFound is returned by LoadBattle for unknown battle ids.
var ErrNotFound = core.ErrBattleNotFound

// Backend is the interface all replay archive implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// RecordBattle stores a battle. Recording a battle id that is already
	// archived replaces the earlier record.
	RecordBattle(r *core.BattleRecord) error

	// LoadBattle returns the archived battle, or ErrNotFound.
	LoadBattle(battleID string) (*core.BattleRecord, error)
}

// Lister is an optional interface for backends that can enumerate their
// archive, newest first. A limit <= 0 returns everything.
type Lister interface {
	ListBattles(limit int) ([]core.BattleSummary, error)
}

// Exporter is an optional interface for backends that write replay files.
type Exporter interface {
	Flush() error
	ExportedFiles() []string
}

// Package postgres implements the storage.Backend interface using GORM/PostgreSQL.
// When Postgres cannot be reached it falls back to an in-memory SQLite
// database that is dumped to disk on Close.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/scanbots/arena/internal/config"
	"github.com/scanbots/arena/internal/database"
	"github.com/scanbots/arena/internal/logging"
	gormstorage "github.com/scanbots/arena/internal/storage/gorm"
)

// Dependencies holds all dependencies for the postgres storage backend.
type Dependencies struct {
	Config     config.PostgresConfig
	Logger     zerolog.Logger
	LogManager *logging.SlogManager
}

// Backend wraps the GORM backend with a managed postgres connection.
type Backend struct {
	*gormstorage.Backend
	deps    Dependencies
	manager *database.Manager
}

// New creates a new postgres storage backend. The connection is made by Init.
func New(deps Dependencies) *Backend {
	return &Backend{
		deps: deps,
	}
}

// Init connects, falling back to SQLite if needed, and migrates the schema.
func (b *Backend) Init() error {
	b.manager = database.NewManager(b.deps.Logger)
	if err := b.manager.Connect(b.deps.Config, b.deps.Config.FallbackPath); err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if b.manager.ShouldSaveLocal {
		b.deps.LogManager.WriteLog("postgres:Init", "Postgres unreachable, archiving to local SQLite", "WARN")
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:         b.manager.DB,
		LogManager: b.deps.LogManager,
	})
	return b.Backend.Init()
}

// Fallback reports whether battles are being archived to local SQLite.
func (b *Backend) Fallback() bool {
	return b.manager != nil && b.manager.ShouldSaveLocal
}

// Close dumps the SQLite fallback, if in use, and closes the connection.
func (b *Backend) Close() error {
	if b.manager == nil {
		return nil
	}
	var dumpErr error
	if b.manager.ShouldSaveLocal && b.manager.SqliteFilePath != "" {
		dumpErr = b.manager.DumpMemoryToDisk()
	}
	if b.Backend != nil {
		b.Backend.Close()
	}
	closeErr := b.manager.Close()
	b.manager = nil

	if dumpErr != nil {
		return dumpErr
	}
	return closeErr
}

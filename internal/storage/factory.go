// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/scanbots/arena/internal/config"
	"github.com/scanbots/arena/internal/logging"
	"github.com/scanbots/arena/internal/storage/memory"
	"github.com/scanbots/arena/internal/storage/postgres"
	sqlitestorage "github.com/scanbots/arena/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration.
// The zerolog logger is used by the postgres connection manager.
func NewBackend(cfg config.StorageConfig, logManager *logging.SlogManager, dbLog zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(postgres.Dependencies{
			Config:     cfg.Postgres,
			Logger:     dbLog,
			LogManager: logManager,
		}), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			Path:         cfg.SQLite.Path,
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, logManager), nil
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

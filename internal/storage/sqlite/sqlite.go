// Package sqlitestorage implements the storage.Backend interface using a
// SQLite database, file backed or in memory. In-memory databases can be
// snapshotted to disk periodically via VACUUM INTO.
// It wraps the GORM backend via composition.
package sqlitestorage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/scanbots/arena/internal/database"
	"github.com/scanbots/arena/internal/logging"
	gormstorage "github.com/scanbots/arena/internal/storage/gorm"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path         string        // empty for in-memory
	DumpInterval time.Duration // 0 disables periodic dumps
	DumpPath     string        // Path for VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	sqlDB    *sql.DB
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a new SQLite storage backend. The database is opened by Init.
func New(cfg Config, logManager *logging.SlogManager) *Backend {
	return &Backend{
		cfg: cfg,
		log: logManager,
	}
}

// Init opens the database, migrates it and starts the dump goroutine.
func (b *Backend) Init() error {
	db, err := database.OpenSqlite(b.cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	b.sqlDB, err = db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	b.db = db
	b.stopChan = make(chan struct{})

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: b.log,
	})
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, writes a final dump if configured and
// closes the database.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	close(b.stopChan)
	b.wg.Wait()

	var dumpErr error
	if b.cfg.DumpPath != "" {
		dumpErr = database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath)
	}
	b.Backend.Close()
	closeErr := b.sqlDB.Close()
	b.db = nil

	if dumpErr != nil {
		return dumpErr
	}
	return closeErr
}

// dumpLoop periodically dumps the database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			} else {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
			}
		}
	}
}

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/scanbots/arena/internal/config"
	"github.com/scanbots/arena/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// Manager handles database connections and operations.
type Manager struct {
	DB              *gorm.DB
	SqlDB           *sql.DB
	IsValid         bool
	ShouldSaveLocal bool
	SqliteFilePath  string
	Logger          zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		IsValid:         false,
		ShouldSaveLocal: false,
		Logger:          log,
	}
}

// Connect establishes a Postgres connection, falling back to an in-memory
// SQLite database when Postgres is unreachable. The fallback is dumped to
// fallbackPath by DumpMemoryToDisk.
func (m *Manager) Connect(pg config.PostgresConfig, fallbackPath string) error {
	db, err := OpenPostgres(pg)
	if err == nil {
		m.SqlDB, err = db.DB()
		if err == nil {
			err = m.SqlDB.Ping()
		}
	}

	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		m.ShouldSaveLocal = true
		m.SqliteFilePath = fallbackPath
		db, err = OpenSqlite(MemoryPath)
		if err != nil || db == nil {
			m.IsValid = false
			return fmt.Errorf("failed to get local SQLite DB: %w", err)
		}
		m.Logger.Info().Str("dumpPath", fallbackPath).Msg("Using local SQLite DB in memory with disk dump")
		m.SqlDB, err = db.DB()
		if err != nil {
			m.IsValid = false
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
	} else {
		m.Logger.Info().Str("host", pg.Host).Str("database", pg.Database).Msg("Connected to database")
		m.SqlDB.SetMaxOpenConns(10)
	}

	m.DB = db
	m.IsValid = true
	return nil
}

// Setup migrates tables and creates default settings if they don't exist.
func (m *Manager) Setup() error {
	if err := Setup(m.DB); err != nil {
		m.IsValid = false
		return err
	}
	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// DumpMemoryToDisk vacuums the in-memory database to SqliteFilePath.
func (m *Manager) DumpMemoryToDisk() error {
	start := time.Now()
	if err := DumpMemoryDBToDisk(m.DB, m.SqliteFilePath); err != nil {
		return err
	}
	m.Logger.Debug().Dur("duration", time.Since(start)).Msg("Dumped memory DB to disk")
	return nil
}

// Close releases the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	m.IsValid = false
	return m.SqlDB.Close()
}

// Standalone functions for direct usage without Manager

// PostgresDSN builds the connection string for cfg.
func PostgresDSN(cfg config.PostgresConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=%s`,
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		sslMode,
	)
}

// OpenPostgres returns a connection to the Postgres database.
func OpenPostgres(cfg config.PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(cfg),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSqlite returns a connection to a SQLite database.
// MemoryPath or an empty path opens a private in-memory database.
func OpenSqlite(path string) (*gorm.DB, error) {
	inMemory := path == "" || path == MemoryPath
	if inMemory {
		path = MemoryPath
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if inMemory {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

// Setup migrates tables and creates the ArenaInfo row if it doesn't exist.
func Setup(db *gorm.DB) error {
	if db == nil {
		return errors.New("database not connected")
	}

	if !db.Migrator().HasTable(&model.ArenaInfo{}) {
		if err := db.AutoMigrate(&model.ArenaInfo{}); err != nil {
			return fmt.Errorf("failed to create arena_infos table: %w", err)
		}
		if err := db.Create(&model.ArenaInfo{
			Name:          "scanbots arena",
			SchemaVersion: model.SchemaVersion,
		}).Error; err != nil {
			return fmt.Errorf("failed to create arena_infos entry: %w", err)
		}
	}

	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// DumpMemoryDBToDisk vacuums the in-memory database to a disk file.
func DumpMemoryDBToDisk(db *gorm.DB, sqliteFilePath string) error {
	if sqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}
	if strings.Contains(sqliteFilePath, "'") {
		return fmt.Errorf("invalid sqlite file path: %q", sqliteFilePath)
	}

	// remove existing file if it exists
	if exists, err := os.Stat(sqliteFilePath); err == nil && exists != nil {
		if err := os.Remove(sqliteFilePath); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	err := db.Exec("VACUUM INTO 'file:" + sqliteFilePath + "';").Error
	if err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}

	return nil
}

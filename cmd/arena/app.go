package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/scanbots/arena/internal/arena"
	"github.com/scanbots/arena/internal/config"
	"github.com/scanbots/arena/internal/engine"
	"github.com/scanbots/arena/internal/influx"
	"github.com/scanbots/arena/internal/logging"
	intOtel "github.com/scanbots/arena/internal/otel"
	"github.com/scanbots/arena/internal/storage"
)

// configKeys maps shared command line flags to their config keys.
var configKeys = map[string]string{
	"log-level":   "logLevel",
	"logs-dir":    "logsDir",
	"storage":     "storage.type",
	"output-dir":  "storage.memory.outputDir",
	"sqlite-path": "storage.sqlite.path",
	"max-turns":   "engine.maxTurns",
	"speed":       "playback.speed",
}

// configFlags returns the flags every command shares.
func configFlags() (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	dir := fs.String("config", ".", "directory containing "+config.FileName)
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("logs-dir", "./arenalogs", "directory for log files")
	fs.String("storage", "memory", "replay archive backend (memory, sqlite, postgres)")
	fs.String("output-dir", "./replays", "replay file directory for the memory backend")
	fs.String("sqlite-path", "./arena.db", "database file for the sqlite backend")
	fs.Int("max-turns", 30, "turn cap before sudden death")
	fs.Int("speed", 1, "playback speed (1-3)")
	return fs, dir
}

// app holds everything a command needs once configuration is loaded.
type app struct {
	start time.Time

	logManager *logging.SlogManager
	logger     *slog.Logger
	dbLog      zerolog.Logger
	otel       *intOtel.Provider
	files      []*os.File

	storage storage.Backend
	influx  *influx.Manager
	service *arena.Service
}

// newApp loads configuration and wires logging, storage, telemetry and the
// arena service. Flags in cfgFlags must already be parsed.
func newApp(configDir string, cfgFlags *pflag.FlagSet) (*app, error) {
	if err := config.BindFlags(cfgFlags, configKeys); err != nil {
		return nil, err
	}
	cfgErr := config.LoadOptional(configDir)

	a := &app{start: time.Now(), logManager: logging.NewSlogManager()}
	if err := a.setupLogging(); err != nil {
		a.close()
		return nil, err
	}
	if cfgErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	}

	if err := a.setupStorage(); err != nil {
		a.close()
		return nil, err
	}
	a.setupInflux()

	opts := arena.Options{
		Engine:  engine.Options{MaxTurns: config.GetEngineConfig().MaxTurns},
		Storage: a.storage,
		Logger:  a.logger,
		Meter:   a.otel.Meter("github.com/scanbots/arena/cmd/arena"),
	}
	if a.influx != nil {
		opts.Telemetry = a.influx
	}
	svc, err := arena.New(opts)
	if err != nil {
		a.close()
		return nil, err
	}
	a.service = svc
	return a, nil
}

func (a *app) openFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	a.files = append(a.files, f)
	return f, nil
}

func (a *app) setupLogging() error {
	level := config.GetString("logLevel")
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	logFile, err := a.openFile(logging.LogFilePath(logsDir, AppName, a.start))
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	otelCfg := config.GetOTelConfig()
	var otelWriter io.Writer
	if otelCfg.Enabled {
		otelFile, err := a.openFile(filepath.Join(logsDir, AppName+".otel.jsonl"))
		if err != nil {
			return fmt.Errorf("opening otel log file: %w", err)
		}
		otelWriter = otelFile
	}
	a.otel, err = intOtel.New(intOtel.FromConfig(otelCfg, CurrentVersion, otelWriter))
	if err != nil {
		return fmt.Errorf("initializing OpenTelemetry: %w", err)
	}

	var graylogErr error
	if config.GetBool("graylog.enabled") {
		graylogErr = a.logManager.AttachGraylog(config.GetString("graylog.address"))
	}

	a.logManager.Setup(logFile, level, a.otel.LoggerProvider())
	a.logger = a.logManager.Logger()
	if graylogErr != nil {
		a.logger.Warn("Graylog disabled", "error", graylogErr)
	}

	zlevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		zlevel = zerolog.InfoLevel
	}
	a.dbLog = zerolog.New(logFile).Level(zlevel).With().Timestamp().Logger()
	return nil
}

func (a *app) setupStorage() error {
	cfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(cfg, a.logManager, a.dbLog.With().Str("component", "database").Logger())
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing %s storage: %w", cfg.Type, err)
	}
	a.storage = backend
	a.logger.Info("Storage backend initialized", "type", cfg.Type)
	return nil
}

func (a *app) setupInflux() {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return
	}
	backup := filepath.Join(config.GetString("logsDir"), "influx_backup.log.gz")
	m := influx.NewManager(a.dbLog.With().Str("component", "influx").Logger(), backup)
	if err := m.Connect(cfg); err != nil {
		a.logger.Warn("InfluxDB disabled", "error", err)
		return
	}
	a.influx = m
}

// close releases everything newApp opened, in reverse order.
func (a *app) close() error {
	var errs []error
	if a.storage != nil {
		errs = append(errs, a.storage.Close())
	}
	if a.influx != nil {
		errs = append(errs, a.influx.Close())
	}
	if a.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.logManager.Flush(ctx)
		errs = append(errs, a.otel.Shutdown(ctx))
		cancel()
	}
	errs = append(errs, a.logManager.Close())
	for _, f := range a.files {
		f.Close()
	}
	return errors.Join(errs...)
}

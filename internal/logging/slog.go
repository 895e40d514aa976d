package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// InstrumentationName identifies arena logs in OTel.
const InstrumentationName = "scanbots-arena"

// console receives logs when Setup is given no file.
var console io.Writer = os.Stdout

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider

	// Graylog output, attached before Setup
	graylog *gelf.Writer

	battle *BattleContext
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{battle: &BattleContext{}}
}

// Battle returns the context whose active battle tags every record.
func (m *SlogManager) Battle() *BattleContext {
	return m.battle
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AttachGraylog sends logs to a GELF UDP endpoint as JSON records.
// Call it before Setup.
func (m *SlogManager) AttachGraylog(address string) error {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return fmt.Errorf("connecting to graylog at %s: %w", address, err)
	}
	w.Facility = InstrumentationName
	m.graylog = w
	return nil
}

// Setup initializes the logging system with file and optional OTel output.
// Console output is used only when file is nil. If provider is nil, OTel
// logging is disabled.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	lvl := parseLevel(level)
	m.logProvider = provider

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	// Build list of handlers
	var handlers []slog.Handler

	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(console, handlerOpts))
	}

	if m.graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(m.graylog, handlerOpts))
	}

	// OTel handler (if provider is available)
	if provider != nil {
		otelHandler := otelslog.NewHandler(InstrumentationName, otelslog.WithLoggerProvider(provider))
		handlers = append(handlers, otelHandler)
	}

	m.logger = slog.New(NewContextHandler(NewFanoutHandler(handlers...), m.battle.Attrs))
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// Close releases the Graylog connection, if any.
func (m *SlogManager) Close() error {
	if m.graylog == nil {
		return nil
	}
	var err error
	if c, ok := any(m.graylog).(io.Closer); ok {
		err = c.Close()
	}
	m.graylog = nil
	return err
}

// WriteLog writes a log entry with the specified component name, data, and level.
func (m *SlogManager) WriteLog(component, data, level string) {
	if m == nil || m.logger == nil {
		return
	}

	lvl := parseLevel(level)

	switch lvl {
	case slog.LevelDebug:
		m.logger.Debug(data, "component", component)
	case slog.LevelInfo:
		m.logger.Info(data, "component", component)
	case slog.LevelWarn:
		m.logger.Warn(data, "component", component)
	case slog.LevelError:
		m.logger.Error(data, "component", component)
	default:
		m.logger.Info(data, "component", component)
	}
}


// Package otel owns the arena's OpenTelemetry log pipeline and hands out
// meters for the simulation and playback metrics.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/scanbots/arena/internal/config"
)

// ErrNoExporter is returned when OTel is enabled with nowhere to send logs.
var ErrNoExporter = errors.New("otel enabled but no log writer or endpoint configured")

// Config holds OTel configuration.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	BatchTimeout   time.Duration
	LogWriter      io.Writer // JSON log sink; required unless Endpoint is set
	Endpoint       string    // OTLP/HTTP endpoint
	Insecure       bool
}

// FromConfig builds a Config from the otel.* settings.
func FromConfig(cfg config.OTelConfig, version string, w io.Writer) Config {
	return Config{
		Enabled:        cfg.Enabled,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		BatchTimeout:   cfg.BatchTimeout,
		LogWriter:      w,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
	}
}

// Provider manages the OTel log provider. A disabled Provider is usable and
// does nothing.
type Provider struct {
	logProvider *sdklog.LoggerProvider
	config      Config
}

func New(cfg Config) (*Provider, error) {
	p := &Provider{config: cfg}
	if !cfg.Enabled {
		return p, nil
	}

	ctx := context.Background()
	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(cfg.ServiceName))}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporters, err := cfg.exporters(ctx)
	if err != nil {
		return nil, err
	}

	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, exp := range exporters {
		opts = append(opts, sdklog.WithProcessor(
			sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.BatchTimeout)),
		))
	}
	p.logProvider = sdklog.NewLoggerProvider(opts...)
	return p, nil
}

// exporters returns the writer exporter and, when an endpoint is set, the
// OTLP exporter.
func (c Config) exporters(ctx context.Context) ([]sdklog.Exporter, error) {
	var out []sdklog.Exporter

	if c.LogWriter != nil {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(c.LogWriter), stdoutlog.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create file log exporter: %w", err)
		}
		out = append(out, exp)
	}

	if c.Endpoint != "" {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(c.Endpoint)}
		if c.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		exp, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		out = append(out, exp)
	}

	if len(out) == 0 {
		return nil, ErrNoExporter
	}
	return out, nil
}

// LoggerProvider returns the provider for the otelslog bridge, or nil when
// disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

// Meter returns a named meter from the global provider, or a no-op meter
// when disabled.
func (p *Provider) Meter(name string) metric.Meter {
	if !p.config.Enabled {
		return noop.Meter{}
	}
	return otel.Meter(name)
}

// Flush exports pending log records.
func (p *Provider) Flush(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("log flush failed: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the log provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("log shutdown failed: %w", err)
	}
	return nil
}

func (p *Provider) Enabled() bool {
	return p.config.Enabled
}

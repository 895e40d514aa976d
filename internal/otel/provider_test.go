package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/scanbots/arena/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("arena"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutOutput(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "arena"})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromConfig(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "scanbots-arena",
		BatchTimeout: 2 * time.Second,
		Endpoint:     "collector:4318",
		Insecure:     true,
	}, "1.2.3", &buf)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "scanbots-arena", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, 2*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "collector:4318", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Same(t, &buf, cfg.LogWriter.(*bytes.Buffer))
}

func TestNew_WritesLogsToWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "arena-test",
		ServiceVersion: "9.9.9",
		BatchTimeout:   time.Second,
		LogWriter:      &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	var rec log.Record
	rec.SetBody(log.StringValue("battle recorded"))
	p.LoggerProvider().Logger("test").Emit(context.Background(), rec)

	require.NoError(t, p.Flush(context.Background()))
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "battle recorded")
	assert.Contains(t, buf.String(), "arena-test")
	assert.Contains(t, buf.String(), "9.9.9")
}

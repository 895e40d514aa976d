package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestPlaybackLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*PlaybackLogger, string, ...any)
	}{
		{"debug", (*PlaybackLogger).Debug},
		{"info", (*PlaybackLogger).Info},
		{"error", (*PlaybackLogger).Error},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			pl := NewPlaybackLogger(zerolog.New(&buf).Level(zerolog.DebugLevel), nil)

			tt.log(pl, "event dispatched", "event", "DAMAGE", "seq", 42)

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "event dispatched", entry["message"])
			assert.Equal(t, "DAMAGE", entry["event"])
			assert.Equal(t, float64(42), entry["seq"])
			assert.NotContains(t, entry, "battle")
		})
	}
}

func TestPlaybackLogger_StampsActiveBattle(t *testing.T) {
	var buf bytes.Buffer
	battle := &BattleContext{}
	pl := NewPlaybackLogger(zerolog.New(&buf), battle)

	battle.Set("b-7f3a", "viewer-9")
	pl.Info("handler ran", "event", "FINISHER")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "b-7f3a", entry["battle"])
	assert.Equal(t, "viewer-9", entry["viewer"])
	assert.Equal(t, "FINISHER", entry["event"])

	buf.Reset()
	battle.Clear()
	pl.Info("handler ran", "event", "RESULT")
	entry = decodeLine(t, &buf)
	assert.NotContains(t, entry, "battle")
	assert.NotContains(t, entry, "viewer")
}

func TestPlaybackLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	pl := NewPlaybackLogger(zerolog.New(&buf).Level(zerolog.InfoLevel), &BattleContext{})

	pl.Debug("hidden", "event", "START")
	assert.Empty(t, buf.String())
}

func TestToFields(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want map[string]any
	}{
		{"empty", nil, map[string]any{}},
		{"pairs", []any{"event", "DAMAGE", "seq", 3}, map[string]any{"event": "DAMAGE", "seq": 3}},
		{"non-string key", []any{7, "seven"}, map[string]any{"7": "seven"}},
		{"dangling value", []any{"event", "HEAL", "orphan"}, map[string]any{"event": "HEAL", badKey: "orphan"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toFields(tt.in))
		})
	}
}

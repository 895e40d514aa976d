package arena

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/scanbots/arena/internal/config"
	"github.com/scanbots/arena/internal/engine"
	"github.com/scanbots/arena/internal/rng"
	"github.com/scanbots/arena/internal/storage/memory"
	"github.com/scanbots/arena/pkg/core"
)

type telemetryStub struct {
	written []string
	err     error
}

func (t *telemetryStub) WriteBattle(_ context.Context, rec *core.BattleRecord) error {
	t.written = append(t.written, rec.BattleID)
	return t.err
}

type failingStorage struct{ *memory.Backend }

func (failingStorage) RecordBattle(*core.BattleRecord) error { return errors.New("disk full") }

var fixedNow = time.Date(2026, 7, 7, 7, 7, 7, 0, time.UTC)

func fighters() (core.CombatantRecord, core.CombatantRecord) {
	a := core.CombatantRecord{ID: "zeta", Name: "Zeta", Stats: core.Stats{HP: 100, Attack: 30, Defense: 10, Speed: 20}}
	b := core.CombatantRecord{ID: "alpha", Name: "Alpha", Stats: core.Stats{HP: 100, Attack: 25, Defense: 15, Speed: 10}}
	return a, b
}

type fixture struct {
	svc       *Service
	store     *memory.Backend
	telemetry *telemetryStub
	reader    *sdkmetric.ManualReader
	logs      *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.New(config.MemoryConfig{OutputDir: t.TempDir()}),
		telemetry: &telemetryStub{},
		reader:    sdkmetric.NewManualReader(),
		logs:      &bytes.Buffer{},
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(f.reader))
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	svc, err := New(Options{
		Storage:   f.store,
		Telemetry: f.telemetry,
		Logger:    slog.New(slog.NewJSONHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Meter:     provider.Meter("test"),
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) collect(t *testing.T) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestRunTraining(t *testing.T) {
	f := newFixture(t)
	a, b := fighters()

	match, err := f.svc.RunTraining(context.Background(), Request{A: a, B: b, Reward: map[string]any{"xp": 10}})
	require.NoError(t, err)

	rec := match.Record
	assert.Equal(t, rng.SeedForPair("zeta", "alpha"), rec.Result.Seed)
	assert.Equal(t, engine.BattleID(rec.Result.Seed), rec.BattleID)
	assert.Equal(t, "zeta", rec.ViewerID)
	assert.Equal(t, fixedNow, rec.CreatedAt)
	assert.Equal(t, map[string]any{"xp": 10}, rec.Result.Reward)

	require.NotEmpty(t, match.Events)
	last := match.Events[len(match.Events)-1]
	assert.Equal(t, core.EventResult, last.Type)

	stored, err := f.store.LoadBattle(rec.BattleID)
	require.NoError(t, err)
	assert.Equal(t, rec.Result.Logs, stored.Result.Logs)
	assert.Equal(t, []string{rec.BattleID}, f.telemetry.written)
	assert.Contains(t, f.logs.String(), "battle simulated")
}

func TestRunTraining_OrderInvariant(t *testing.T) {
	f := newFixture(t)
	a, b := fighters()

	m1, err := f.svc.RunTraining(context.Background(), Request{A: a, B: b, ViewerID: "alpha"})
	require.NoError(t, err)
	m2, err := f.svc.RunTraining(context.Background(), Request{A: b, B: a})
	require.NoError(t, err)

	assert.Equal(t, m1.Record.BattleID, m2.Record.BattleID)
	assert.Equal(t, m1.Record.Result.Logs, m2.Record.Result.Logs)
	assert.Equal(t, m1.Events, m2.Events)
}

func TestRunTraining_SeedOverride(t *testing.T) {
	f := newFixture(t)
	a, b := fighters()

	match, err := f.svc.RunTraining(context.Background(), Request{A: a, B: b, Seed: "rematch-2"})
	require.NoError(t, err)
	assert.Equal(t, engine.BattleID("rematch-2"), match.Record.BattleID)
}

func TestRunTraining_Metrics(t *testing.T) {
	f := newFixture(t)
	a, b := fighters()

	for i := 0; i < 3; i++ {
		_, err := f.svc.RunTraining(context.Background(), Request{A: a, B: b})
		require.NoError(t, err)
	}

	data := f.collect(t)

	sum, ok := data["arena.battles.simulated"].(metricdata.Sum[int64])
	require.True(t, ok, "battles counter missing")
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.EqualValues(t, 3, total)

	hist, ok := data["arena.battle.turns"].(metricdata.Histogram[int64])
	require.True(t, ok, "turns histogram missing")
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.EqualValues(t, 3, count)
}

func TestRunTraining_InvalidInput(t *testing.T) {
	f := newFixture(t)
	a, b := fighters()
	b.Stats.HP = 0

	_, err := f.svc.RunTraining(context.Background(), Request{A: a, B: b})
	assert.ErrorIs(t, err, engine.ErrInvalidCombatant)
	assert.Empty(t, f.telemetry.written)
	assert.Equal(t, 0, f.store.Pending())
}

func TestRunTraining_UnknownViewer(t *testing.T) {
	f := newFixture(t)
	a, b := fighters()

	_, err := f.svc.RunTraining(context.Background(), Request{A: a, B: b, ViewerID: "ghost"})
	assert.ErrorIs(t, err, engine.ErrInvalidCombatant)
}

func TestRunTraining_CancelledContext(t *testing.T) {
	f := newFixture(t)
	a, b := fighters()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.RunTraining(ctx, Request{A: a, B: b})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunTraining_StorageFailure(t *testing.T) {
	a, b := fighters()
	svc, err := New(Options{Storage: failingStorage{memory.New(config.MemoryConfig{})}})
	require.NoError(t, err)

	_, err = svc.RunTraining(context.Background(), Request{A: a, B: b})
	assert.ErrorContains(t, err, "disk full")
}

func TestRunTraining_TelemetryFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.telemetry.err = errors.New("influx down")
	a, b := fighters()

	_, err := f.svc.RunTraining(context.Background(), Request{A: a, B: b})
	require.NoError(t, err)
	assert.Contains(t, f.logs.String(), "battle telemetry failed")
}

func TestRunTraining_NoStorage(t *testing.T) {
	svc, err := New(Options{})
	require.NoError(t, err)
	a, b := fighters()

	match, err := svc.RunTraining(context.Background(), Request{A: a, B: b})
	require.NoError(t, err)
	assert.NotEmpty(t, match.Events)

	_, err = svc.Replay(context.Background(), match.Record.BattleID)
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	f := newFixture(t)
	a, b := fighters()

	match, err := f.svc.RunTraining(context.Background(), Request{A: a, B: b})
	require.NoError(t, err)

	replay, err := f.svc.Replay(context.Background(), match.Record.BattleID)
	require.NoError(t, err)
	assert.Equal(t, match.Events, replay.Events)

	_, err = f.svc.Replay(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrBattleNotFound)
}

func TestReplay_RebuildsEvents(t *testing.T) {
	f := newFixture(t)
	a, b := fighters()

	match, err := f.svc.RunTraining(context.Background(), Request{A: a, B: b})
	require.NoError(t, err)

	bare := *match.Record
	bare.Events = nil
	require.NoError(t, f.store.RecordBattle(&bare))

	replay, err := f.svc.Replay(context.Background(), bare.BattleID)
	require.NoError(t, err)
	assert.Equal(t, match.Events, replay.Events)
}

// Package storagetest holds fixtures and a behaviour suite shared by the
// storage backend tests.
package storagetest

import (
	"errors"
	"testing"
	"time"

	"github.com/scanbots/arena/internal/engine"
	"github.com/scanbots/arena/internal/normalizer"
	"github.com/scanbots/arena/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Backend mirrors storage.Backend; importing storage here would cycle
// through the factory.
type Backend interface {
	Init() error
	Close() error
	RecordBattle(r *core.BattleRecord) error
	LoadBattle(battleID string) (*core.BattleRecord, error)
}

// Lister mirrors storage.Lister.
type Lister interface {
	ListBattles(limit int) ([]core.BattleSummary, error)
}

// Record simulates a real battle for seed and wraps it as an archive record.
func Record(t testing.TB, seed string, created time.Time) *core.BattleRecord {
	t.Helper()
	a := core.CombatantRecord{
		ID:      "bot-a",
		Name:    "Rivet",
		Stats:   core.Stats{HP: 110, Attack: 38, Defense: 18, Speed: 16},
		Element: "VOLT",
		Skills:  []core.Skill{{Name: "Arc Lance", Power: 200}},
		Cosmetic: core.Cosmetic{
			Parts:  map[string]string{"arm": "claw"},
			Colors: []string{"#00ffaa"},
		},
	}
	b := core.CombatantRecord{
		ID:    "bot-b",
		Name:  "Gasket",
		Stats: core.Stats{HP: 140, Attack: 30, Defense: 26, Speed: 11, Shield: 15},
		Role:  "TANK",
	}
	res, err := engine.Simulate(a, b, seed, engine.Inputs{B: core.SideInputs{Item: core.ItemRepair}})
	require.NoError(t, err)
	res.Reward = map[string]any{"xp": float64(25)}

	return &core.BattleRecord{
		BattleID:  res.BattleID,
		ViewerID:  "bot-a",
		Result:    *res,
		Events:    normalizer.FromResult(res, "bot-a"),
		CreatedAt: created.UTC(),
	}
}

// RunSuite exercises the archive contract against a fresh, initialized
// backend from newBackend. The suite closes nothing; newBackend should
// register cleanup itself.
func RunSuite(t *testing.T, newBackend func(t *testing.T) Backend) {
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	t.Run("RecordAndLoad", func(t *testing.T) {
		b := newBackend(t)
		rec := Record(t, "suite-1", base)
		require.NoError(t, b.RecordBattle(rec))

		got, err := b.LoadBattle(rec.BattleID)
		require.NoError(t, err)
		assert.Equal(t, rec.BattleID, got.BattleID)
		assert.Equal(t, rec.ViewerID, got.ViewerID)
		assert.Equal(t, rec.Result.Seed, got.Result.Seed)
		assert.Equal(t, rec.Result.P1, got.Result.P1)
		assert.Equal(t, rec.Result.P2, got.Result.P2)
		assert.Equal(t, rec.Result.WinnerID, got.Result.WinnerID)
		assert.Equal(t, rec.Result.Logs, got.Result.Logs)
		assert.Equal(t, rec.Result.Reward, got.Result.Reward)
		assert.Equal(t, rec.Events, got.Events)
		assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("UnknownBattle", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.LoadBattle("no-such-battle")
		assert.True(t, errors.Is(err, core.ErrBattleNotFound), "got %v", err)
	})

	t.Run("RecordReplaces", func(t *testing.T) {
		b := newBackend(t)
		first := Record(t, "suite-2", base)
		require.NoError(t, b.RecordBattle(first))

		second := Record(t, "suite-2", base.Add(time.Minute))
		second.ViewerID = "bot-b"
		require.NoError(t, b.RecordBattle(second))

		got, err := b.LoadBattle(first.BattleID)
		require.NoError(t, err)
		assert.Equal(t, "bot-b", got.ViewerID)

		if l, ok := b.(Lister); ok {
			list, err := l.ListBattles(0)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		b := newBackend(t)
		l, ok := b.(Lister)
		if !ok {
			t.Skip("backend does not list")
		}
		for i, seed := range []string{"list-a", "list-b", "list-c"} {
			require.NoError(t, b.RecordBattle(Record(t, seed, base.Add(time.Duration(i)*time.Hour))))
		}

		list, err := l.ListBattles(2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, engine.BattleID("list-c"), list[0].BattleID)
		assert.Equal(t, engine.BattleID("list-b"), list[1].BattleID)
		assert.Equal(t, "bot-a", list[0].P1ID)
		assert.Equal(t, "bot-b", list[0].P2ID)

		all, err := l.ListBattles(0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/scanbots/arena/internal/engine"
	"github.com/scanbots/arena/internal/model"
	"github.com/scanbots/arena/internal/normalizer"
	"github.com/scanbots/arena/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func testRecord(t *testing.T) *core.BattleRecord {
	t.Helper()
	a := core.CombatantRecord{
		ID:      "bot-a",
		Name:    "Rivet",
		Stats:   core.Stats{HP: 120, Attack: 40, Defense: 20, Speed: 18},
		Element: "VOLT",
		Skills:  []core.Skill{{Name: "Arc Lance", Power: 200}},
		Cosmetic: core.Cosmetic{
			Parts:  map[string]string{"head": "visor"},
			Colors: []string{"#ff0000"},
		},
	}
	b := core.CombatantRecord{
		ID:    "bot-b",
		Name:  "Gasket",
		Stats: core.Stats{HP: 150, Attack: 32, Defense: 28, Speed: 12, Shield: 20},
		Role:  "TANK",
	}
	res, err := engine.Simulate(a, b, "convert-test", engine.Inputs{A: core.SideInputs{Cheer: true}})
	require.NoError(t, err)
	res.Reward = map[string]any{"xp": float64(40)}

	return &core.BattleRecord{
		BattleID:  res.BattleID,
		ViewerID:  "bot-a",
		Result:    *res,
		Events:    normalizer.FromResult(res, "bot-a"),
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCoreToBattle(t *testing.T) {
	rec := testRecord(t)

	row, err := CoreToBattle(rec)
	require.NoError(t, err)

	assert.Equal(t, rec.BattleID, row.BattleID)
	assert.Equal(t, "convert-test", row.Seed)
	assert.Equal(t, rec.Result.WinnerID, row.WinnerID)
	assert.Equal(t, rec.Result.Turns, row.Turns)
	assert.Equal(t, rec.CreatedAt, row.CreatedAt)
	require.Len(t, row.Combatants, 2)
	assert.Equal(t, "P1", row.Combatants[0].Side)
	assert.Equal(t, "P2", row.Combatants[1].Side)
	assert.JSONEq(t, `{"xp":40}`, string(row.Reward))

	var logs []core.BattleLog
	require.NoError(t, json.Unmarshal(row.Logs, &logs))
	assert.Len(t, logs, len(rec.Result.Logs))
}

func TestCoreToCombatant_EmptyCollections(t *testing.T) {
	c, err := CoreToCombatant(core.SideP2, core.CombatantRecord{ID: "x", Stats: core.Stats{HP: 1}})
	require.NoError(t, err)

	assert.Equal(t, "[]", string(c.Skills))
	assert.Equal(t, "P2", c.Side)
	assert.Equal(t, 1, c.HP)
}

// Round-trip: Core → GORM → Core
func TestBattleRoundTrip(t *testing.T) {
	rec := testRecord(t)

	row, err := CoreToBattle(rec)
	require.NoError(t, err)
	back, err := BattleToCore(row)
	require.NoError(t, err)

	assert.Equal(t, rec.BattleID, back.BattleID)
	assert.Equal(t, rec.ViewerID, back.ViewerID)
	assert.Equal(t, rec.Result.P1, back.Result.P1)
	assert.Equal(t, rec.Result.P2, back.Result.P2)
	assert.Equal(t, rec.Result.Logs, back.Result.Logs)
	assert.Equal(t, rec.Result.Reward, back.Result.Reward)
	assert.Equal(t, rec.Events, back.Events)
}

func TestBattleToCore_UnknownSide(t *testing.T) {
	_, err := BattleToCore(model.Battle{
		BattleID:   "b",
		Combatants: []model.BattleCombatant{{CombatantID: "x", Side: "P3"}},
	})
	assert.ErrorContains(t, err, "unknown side")
}

func TestBattleToCore_BadJSON(t *testing.T) {
	_, err := BattleToCore(model.Battle{BattleID: "b", Logs: datatypes.JSON("{")})
	assert.ErrorContains(t, err, "logs")
}

package convert

import (
	"encoding/json"
	"fmt"

	"github.com/scanbots/arena/internal/model"
	"github.com/scanbots/arena/pkg/core"
	"gorm.io/datatypes"
)

func fromJSON(data datatypes.JSON, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// CombatantToCore converts a GORM model.BattleCombatant to a core.CombatantRecord.
func CombatantToCore(c model.BattleCombatant) (core.CombatantRecord, error) {
	rec := core.CombatantRecord{
		ID:   c.CombatantID,
		Name: c.Name,
		Stats: core.Stats{
			HP:      c.HP,
			Attack:  c.Attack,
			Defense: c.Defense,
			Speed:   c.Speed,
			Shield:  c.Shield,
		},
		Element: c.Element,
		Role:    c.Role,
	}
	if err := fromJSON(c.Skills, &rec.Skills); err != nil {
		return rec, fmt.Errorf("skills of %s: %w", c.CombatantID, err)
	}
	if len(rec.Skills) == 0 {
		rec.Skills = nil
	}
	if err := fromJSON(c.Cosmetic, &rec.Cosmetic); err != nil {
		return rec, fmt.Errorf("cosmetic of %s: %w", c.CombatantID, err)
	}
	return rec, nil
}

// BattleToCore converts a GORM model.Battle, with its combatants loaded,
// back to a core.BattleRecord.
func BattleToCore(b model.Battle) (*core.BattleRecord, error) {
	rec := &core.BattleRecord{
		BattleID:  b.BattleID,
		ViewerID:  b.ViewerID,
		CreatedAt: b.CreatedAt,
		Result: core.BattleResult{
			BattleID: b.BattleID,
			Seed:     b.Seed,
			WinnerID: b.WinnerID,
			LoserID:  b.LoserID,
			Turns:    b.Turns,
		},
	}

	for _, c := range b.Combatants {
		cr, err := CombatantToCore(c)
		if err != nil {
			return nil, err
		}
		switch core.Side(c.Side) {
		case core.SideP1:
			rec.Result.P1 = cr
		case core.SideP2:
			rec.Result.P2 = cr
		default:
			return nil, fmt.Errorf("combatant %s has unknown side %q", c.CombatantID, c.Side)
		}
	}

	if err := fromJSON(b.Logs, &rec.Result.Logs); err != nil {
		return nil, fmt.Errorf("logs: %w", err)
	}
	if err := fromJSON(b.Events, &rec.Events); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	if err := fromJSON(b.Reward, &rec.Result.Reward); err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	return rec, nil
}

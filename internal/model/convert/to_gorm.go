// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/scanbots/arena/internal/model"
	"github.com/scanbots/arena/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v for a JSON column. Nil values store as the empty document.
func toJSON(v any, empty string) (datatypes.JSON, error) {
	if v == nil {
		return datatypes.JSON(empty), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return datatypes.JSON(empty), nil
	}
	return datatypes.JSON(data), nil
}

// CoreToCombatant converts a core.CombatantRecord to a GORM model.BattleCombatant.
func CoreToCombatant(side core.Side, c core.CombatantRecord) (model.BattleCombatant, error) {
	skills, err := toJSON(c.Skills, "[]")
	if err != nil {
		return model.BattleCombatant{}, fmt.Errorf("skills of %s: %w", c.ID, err)
	}
	cosmetic, err := toJSON(c.Cosmetic, "{}")
	if err != nil {
		return model.BattleCombatant{}, fmt.Errorf("cosmetic of %s: %w", c.ID, err)
	}
	return model.BattleCombatant{
		Side:        string(side),
		CombatantID: c.ID,
		Name:        c.Name,
		HP:          c.Stats.HP,
		Attack:      c.Stats.Attack,
		Defense:     c.Stats.Defense,
		Speed:       c.Stats.Speed,
		Shield:      c.Stats.Shield,
		Element:     c.Element,
		Role:        c.Role,
		Skills:      skills,
		Cosmetic:    cosmetic,
	}, nil
}

// CoreToBattle converts a core.BattleRecord to a GORM model.Battle with
// both combatant rows attached.
func CoreToBattle(r *core.BattleRecord) (model.Battle, error) {
	logs, err := toJSON(r.Result.Logs, "[]")
	if err != nil {
		return model.Battle{}, fmt.Errorf("logs: %w", err)
	}
	events, err := toJSON(r.Events, "[]")
	if err != nil {
		return model.Battle{}, fmt.Errorf("events: %w", err)
	}
	reward, err := toJSON(r.Result.Reward, "null")
	if err != nil {
		return model.Battle{}, fmt.Errorf("reward: %w", err)
	}

	p1, err := CoreToCombatant(core.SideP1, r.Result.P1)
	if err != nil {
		return model.Battle{}, err
	}
	p2, err := CoreToCombatant(core.SideP2, r.Result.P2)
	if err != nil {
		return model.Battle{}, err
	}

	return model.Battle{
		CreatedAt:   r.CreatedAt,
		BattleID:    r.BattleID,
		Seed:        r.Result.Seed,
		ViewerID:    r.ViewerID,
		WinnerID:    r.Result.WinnerID,
		LoserID:     r.Result.LoserID,
		Turns:       r.Result.Turns,
		SuddenDeath: r.Result.SuddenDeath(),
		Logs:        logs,
		Events:      events,
		Reward:      reward,
		Combatants:  []model.BattleCombatant{p1, p2},
	}, nil
}

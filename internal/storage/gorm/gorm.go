// Package gormstorage implements the storage.Backend interface on top of any
// GORM dialector. The sqlite and postgres backends wrap it and only own the
// connection lifecycle.
package gormstorage

import (
	"errors"
	"fmt"

	"github.com/scanbots/arena/internal/database"
	"github.com/scanbots/arena/internal/logging"
	"github.com/scanbots/arena/internal/model"
	"github.com/scanbots/arena/internal/model/convert"
	"github.com/scanbots/arena/pkg/core"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
}

// Backend implements storage.Backend with GORM.
type Backend struct {
	deps    Dependencies
	dbReady bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		deps: deps,
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend: no database")
	}
	b.deps.LogManager.WriteLog("gorm:Init", "Migrating schema", "INFO")
	if err := database.Setup(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.dbReady = true
	return nil
}

// Close is a no-op; the wrapping backend owns the connection.
func (b *Backend) Close() error {
	b.dbReady = false
	return nil
}

// RecordBattle inserts the battle and its combatants, replacing any earlier
// record with the same battle id.
func (b *Backend) RecordBattle(r *core.BattleRecord) error {
	if !b.dbReady {
		return errors.New("gorm backend: not initialized")
	}

	row, err := convert.CoreToBattle(r)
	if err != nil {
		return fmt.Errorf("converting battle %s: %w", r.BattleID, err)
	}

	err = b.deps.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.Battle
		err := tx.Where("battle_id = ?", r.BattleID).Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != 0 {
			if err := tx.Where("battle_row_id = ?", existing.ID).Delete(&model.BattleCombatant{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			b.deps.LogManager.WriteLog("gorm:RecordBattle", fmt.Sprintf("Replacing battle %s", r.BattleID), "DEBUG")
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("failed to insert battle %s: %w", r.BattleID, err)
	}
	return nil
}

// LoadBattle reads a battle back with its combatants.
func (b *Backend) LoadBattle(battleID string) (*core.BattleRecord, error) {
	if !b.dbReady {
		return nil, errors.New("gorm backend: not initialized")
	}

	var row model.Battle
	err := b.deps.DB.Preload("Combatants").Where("battle_id = ?", battleID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", core.ErrBattleNotFound, battleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load battle %s: %w", battleID, err)
	}
	return convert.BattleToCore(row)
}

// ListBattles returns summaries, newest first.
func (b *Backend) ListBattles(limit int) ([]core.BattleSummary, error) {
	if !b.dbReady {
		return nil, errors.New("gorm backend: not initialized")
	}

	q := b.deps.DB.Preload("Combatants").Order("created_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.Battle
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}

	out := make([]core.BattleSummary, 0, len(rows))
	for _, row := range rows {
		s := core.BattleSummary{
			BattleID:    row.BattleID,
			WinnerID:    row.WinnerID,
			Turns:       row.Turns,
			SuddenDeath: row.SuddenDeath,
			CreatedAt:   row.CreatedAt,
		}
		for _, c := range row.Combatants {
			switch core.Side(c.Side) {
			case core.SideP1:
				s.P1ID = c.CombatantID
			case core.SideP2:
				s.P2ID = c.CombatantID
			}
		}
		out = append(out, s)
	}
	return out, nil
}

package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// SchemaVersion is written to ArenaInfo on first setup.
const SchemaVersion = 1

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ArenaInfo{},
	&Battle{},
	&BattleCombatant{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// ArenaInfo describes the archive instance.
type ArenaInfo struct {
	gorm.Model
	Name          string `json:"name" gorm:"size:127"`
	SchemaVersion int    `json:"schemaVersion"`
}

func (*ArenaInfo) TableName() string {
	return "arena_infos"
}

////////////////////////
// REPLAY MODELS
////////////////////////

// Battle is one archived training battle. Logs and events are stored as
// JSON documents so a replay can be rebuilt without re-simulating.
type Battle struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"index:idx_battle_created_at"`
	BattleID    string         `json:"battleId" gorm:"size:36;uniqueIndex:idx_battle_id"`
	Seed        string         `json:"seed" gorm:"size:255"`
	ViewerID    string         `json:"viewerId" gorm:"size:64"`
	WinnerID    string         `json:"winnerId" gorm:"size:64;index:idx_battle_winner"`
	LoserID     string         `json:"loserId" gorm:"size:64"`
	Turns       int            `json:"turns"`
	SuddenDeath bool           `json:"suddenDeath"`
	Logs        datatypes.JSON `json:"logs"`
	Events      datatypes.JSON `json:"events"`
	Reward      datatypes.JSON `json:"reward"`

	Combatants []BattleCombatant `json:"combatants" gorm:"foreignKey:BattleRowID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Battle) TableName() string {
	return "battles"
}

// BattleCombatant is a fighter snapshot taken when the battle ran.
type BattleCombatant struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement"`
	BattleRowID uint           `json:"battleRowId" gorm:"index:idx_combatant_battle"`
	Side        string         `json:"side" gorm:"size:4"`
	CombatantID string         `json:"combatantId" gorm:"size:64;index:idx_combatant_id"`
	Name        string         `json:"name" gorm:"size:127"`
	HP          int            `json:"hp"`
	Attack      int            `json:"attack"`
	Defense     int            `json:"defense"`
	Speed       int            `json:"speed"`
	Shield      int            `json:"shield"`
	Element     string         `json:"element" gorm:"size:32"`
	Role        string         `json:"role" gorm:"size:32"`
	Skills      datatypes.JSON `json:"skills"`
	Cosmetic    datatypes.JSON `json:"cosmetic"`
}

func (*BattleCombatant) TableName() string {
	return "battle_combatants"
}

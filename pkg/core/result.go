// pkg/core/result.go
package core

import (
	"errors"
	"time"
)

// ErrBattleNotFound is returned when an archive has no record for a battle id.
var ErrBattleNotFound = errors.New("battle not found")

// BattleResult is the terminal record of a simulation.
// Reward is supplied by the caller; the engine never computes it.
type BattleResult struct {
	BattleID string          `json:"battleId"`
	Seed     string          `json:"seed"`
	P1       CombatantRecord `json:"p1"`
	P2       CombatantRecord `json:"p2"`
	WinnerID string          `json:"winnerId"`
	LoserID  string          `json:"loserId"`
	Turns    int             `json:"turns"`
	Logs     []BattleLog     `json:"logs"`
	Reward   any             `json:"reward,omitempty"`
}

// Combatant returns the record with the given id.
func (r *BattleResult) Combatant(id string) (CombatantRecord, bool) {
	switch id {
	case r.P1.ID:
		return r.P1, true
	case r.P2.ID:
		return r.P2, true
	}
	return CombatantRecord{}, false
}

// SuddenDeath reports whether the battle needed sudden death to resolve.
func (r *BattleResult) SuddenDeath() bool {
	return len(r.Logs) > 0 && r.Logs[len(r.Logs)-1].SuddenDeathTick > 0
}

// BattleRecord is what the replay archive stores for one battle.
type BattleRecord struct {
	BattleID  string        `json:"battleId"`
	ViewerID  string        `json:"viewerId"`
	Result    BattleResult  `json:"result"`
	Events    []BattleEvent `json:"events"`
	CreatedAt time.Time     `json:"createdAt"`
}

// BattleSummary is the listing view of an archived battle.
type BattleSummary struct {
	BattleID    string    `json:"battleId"`
	P1ID        string    `json:"p1Id"`
	P2ID        string    `json:"p2Id"`
	WinnerID    string    `json:"winnerId"`
	Turns       int       `json:"turns"`
	SuddenDeath bool      `json:"suddenDeath"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary returns the listing view of r.
func (r *BattleRecord) Summary() BattleSummary {
	return BattleSummary{
		BattleID:    r.BattleID,
		P1ID:        r.Result.P1.ID,
		P2ID:        r.Result.P2.ID,
		WinnerID:    r.Result.WinnerID,
		Turns:       r.Result.Turns,
		SuddenDeath: r.Result.SuddenDeath(),
		CreatedAt:   r.CreatedAt,
	}
}

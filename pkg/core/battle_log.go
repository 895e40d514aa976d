// pkg/core/battle_log.go
package core

// ActionKind is what the acting side did in a log entry.
type ActionKind string

const (
	ActionAttack      ActionKind = "ATTACK"
	ActionSpecial     ActionKind = "SPECIAL"
	ActionPursuit     ActionKind = "PURSUIT"
	ActionStunned     ActionKind = "STUNNED"
	ActionSuddenDeath ActionKind = "SUDDEN_DEATH"
)

// Stance is the posture each side takes for an exchange.
type Stance string

const (
	StancePower Stance = "POWER"
	StanceGuard Stance = "GUARD"
	StanceTech  Stance = "TECH"
)

// Stances lists all stances in draw order.
var Stances = [...]Stance{StancePower, StanceGuard, StanceTech}

// StanceResult is the matchup outcome from the attacker's point of view.
type StanceResult string

const (
	StanceWin  StanceResult = "WIN"
	StanceLose StanceResult = "LOSE"
	StanceDraw StanceResult = "DRAW"
)

// Beats reports whether s wins against other.
// POWER beats TECH, TECH beats GUARD, GUARD beats POWER.
func (s Stance) Beats(other Stance) bool {
	switch s {
	case StancePower:
		return other == StanceTech
	case StanceTech:
		return other == StanceGuard
	case StanceGuard:
		return other == StancePower
	}
	return false
}

// Matchup resolves attacker vs defender stance.
func Matchup(attacker, defender Stance) StanceResult {
	switch {
	case attacker.Beats(defender):
		return StanceWin
	case defender.Beats(attacker):
		return StanceLose
	default:
		return StanceDraw
	}
}

// StanceClash records the stances taken for one exchange.
type StanceClash struct {
	Attacker Stance       `json:"attacker"`
	Defender Stance       `json:"defender"`
	Result   StanceResult `json:"result"`
}

// BattleLog is one resolved action. Logs are produced once by the engine
// and must be consumed in order: each HP value depends on the previous entry.
type BattleLog struct {
	Turn         int        `json:"turn"`
	AttackerID   string     `json:"attackerId"`
	DefenderID   string     `json:"defenderId"`
	AttackerSide Side       `json:"attackerSide"`
	Action       ActionKind `json:"action"`
	Damage       int        `json:"damage"`
	Critical     bool       `json:"critical,omitempty"`
	Miss         bool       `json:"miss,omitempty"`
	AttackerHP   int        `json:"attackerHp"`
	DefenderHP   int        `json:"defenderHp"`

	AttackerMeter int `json:"attackerMeter"`
	DefenderMeter int `json:"defenderMeter"`

	Stance *StanceClash `json:"stance,omitempty"`

	Guarded     bool `json:"guarded,omitempty"`
	StunApplied bool `json:"stunApplied,omitempty"`

	ItemApplied bool     `json:"itemApplied,omitempty"`
	ItemSide    Side     `json:"itemSide,omitempty"`
	ItemEffect  ItemKind `json:"itemEffect,omitempty"`
	HealAmount  int      `json:"healAmount,omitempty"`

	CheerApplied bool `json:"cheerApplied,omitempty"`
	CheerSide    Side `json:"cheerSide,omitempty"`

	Overdrive   bool   `json:"overdrive,omitempty"`
	SpecialName string `json:"specialName,omitempty"`

	ShieldActive bool `json:"shieldActive,omitempty"`
	ShieldHP     int  `json:"shieldHp,omitempty"`
	ShieldDamage int  `json:"shieldDamage,omitempty"`
	ShieldBroken bool `json:"shieldBroken,omitempty"`

	Finisher        bool `json:"finisher,omitempty"`
	SuddenDeathTick int  `json:"suddenDeathTick,omitempty"`
}

// Landed reports whether the entry dealt damage from an attack.
func (l BattleLog) Landed() bool {
	return !l.Miss && l.Damage > 0 && l.Action != ActionSuddenDeath && l.Action != ActionStunned
}

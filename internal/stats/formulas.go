// Package stats holds the combat formulas shared by the engine.
// Everything here is integer-in, integer-out where damage is concerned so
// results stay reproducible across platforms.
package stats

import "math"

const (
	baseHitChance    = 0.90
	hitPerSpeedPoint = 0.005
	minHitChance     = 0.70
	maxHitChance     = 0.98

	baseCritChance   = 0.05
	critPerSpeed     = 0.001
	maxCritChance    = 0.30
	StanceCritBonus  = 0.15
	VarianceMinPct   = 90
	VarianceMaxPct   = 110
	BasicPowerPct    = 100
	PursuitPowerPct  = 50
	DefaultSkillPct  = 180
	CritMultiplier   = 1.5
	GuardMultiplier  = 0.5
	CheerMultiplier  = 1.2
	BoostMultiplier  = 1.25
	MeterThreshold   = 100
	MeterOnHit       = 20
	MeterOnDamaged   = 15
	PursuitSpeedGap  = 10
	PursuitChance    = 0.20
	StunChance       = 0.35
	RepairThreshold  = 0.40
	RepairHealRatio  = 0.30
	SuddenDeathSteps = 10
)

// RawDamage is attack minus half defense, never below 1.
func RawDamage(attack, defense int) int {
	raw := attack - defense/2
	if raw < 1 {
		return 1
	}
	return raw
}

// BaseDamage scales raw damage by variance and move power (both percentages).
func BaseDamage(attack, defense, variancePct, powerPct int) int {
	dmg := RawDamage(attack, defense) * variancePct * powerPct / 10000
	if dmg < 1 {
		return 1
	}
	return dmg
}

// HitChance is the probability an attack connects.
func HitChance(attackerSpeed, defenderSpeed int) float64 {
	return clamp(baseHitChance+float64(attackerSpeed-defenderSpeed)*hitPerSpeedPoint, minHitChance, maxHitChance)
}

// CritChance is the probability of a critical hit, before stance bonuses.
func CritChance(attackerSpeed int) float64 {
	return clamp(baseCritChance+float64(attackerSpeed)*critPerSpeed, baseCritChance, maxCritChance)
}

// Scale multiplies and floors. Damage that was positive stays at least 1.
func Scale(dmg int, mult float64) int {
	if dmg <= 0 {
		return 0
	}
	scaled := int(math.Floor(float64(dmg) * mult))
	if scaled < 1 {
		return 1
	}
	return scaled
}

// Modifiers are the multiplicative stages applied to a landed hit.
type Modifiers struct {
	Critical bool
	Guarded  bool
	Cheer    bool
	Boost    bool
}

// ApplyModifiers scales base damage through the stages in a fixed order,
// flooring after each: critical, guard, cheer, item boost.
func ApplyModifiers(dmg int, m Modifiers) int {
	if m.Critical {
		dmg = Scale(dmg, CritMultiplier)
	}
	if m.Guarded {
		dmg = Scale(dmg, GuardMultiplier)
	}
	if m.Cheer {
		dmg = Scale(dmg, CheerMultiplier)
	}
	if m.Boost {
		dmg = Scale(dmg, BoostMultiplier)
	}
	return dmg
}

// CheerDamage applies the cheer boost to a landed hit.
func CheerDamage(dmg int) int {
	return Scale(dmg, CheerMultiplier)
}

// SuddenDeathChip is the guaranteed damage both sides take on tick k.
func SuddenDeathChip(maxHP, tick int) int {
	chip := int(math.Ceil(float64(maxHP) * float64(tick) / SuddenDeathSteps))
	if chip < 1 {
		return 1
	}
	return chip
}

// RepairAmount is the heal granted by a REPAIR item.
func RepairAmount(maxHP int) int {
	heal := int(math.Floor(float64(maxHP) * RepairHealRatio))
	if heal < 1 {
		return 1
	}
	return heal
}

// NeedsRepair reports whether hp has fallen to the REPAIR threshold.
func NeedsRepair(hp, maxHP int) bool {
	return float64(hp) <= float64(maxHP)*RepairThreshold
}

// HPRatio returns hp/maxHP, 0 for a non-positive max.
func HPRatio(hp, maxHP int) float64 {
	if maxHP <= 0 {
		return 0
	}
	return float64(hp) / float64(maxHP)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

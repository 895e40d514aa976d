// Package engine runs deterministic training battles.
//
// A battle is a pure function of the two fighters, their side inputs and a
// seed. The engine performs no I/O and never reads the wall clock; all
// randomness comes from one rng.Source built from the seed.
package engine

import (
	"github.com/google/uuid"

	"github.com/scanbots/arena/internal/rng"
	"github.com/scanbots/arena/internal/stats"
	"github.com/scanbots/arena/pkg/core"
)

const (
	// DefaultMaxTurns is the turn cap before sudden death.
	DefaultMaxTurns = 30
	// MaxSuddenDeathTicks bounds sudden death; the last tick chips full HP.
	MaxSuddenDeathTicks = stats.SuddenDeathSteps

	defaultSpecialName = "Overdrive Burst"
)

// battleNamespace scopes battle ids derived from seeds.
var battleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://scanbots.dev/arena/battle"))

// Options tune a simulation. The zero value uses defaults.
type Options struct {
	MaxTurns int
}

func (o Options) maxTurns() int {
	if o.MaxTurns <= 0 {
		return DefaultMaxTurns
	}
	return o.MaxTurns
}

// BattleID returns the deterministic battle id for a seed.
func BattleID(seed string) string {
	return uuid.NewSHA1(battleNamespace, []byte(seed)).String()
}

// Simulate runs a battle with default options.
func Simulate(a, b core.CombatantRecord, seed string, in Inputs) (*core.BattleResult, error) {
	return SimulateWith(Options{}, a, b, seed, in)
}

// SimulateWith validates and canonicalizes the pair, then runs the battle.
// Argument order never changes the result: simulate(a, b) and simulate(b, a)
// produce the same logs for the same seed.
func SimulateWith(opts Options, a, b core.CombatantRecord, seed string, in Inputs) (*core.BattleResult, error) {
	if err := Validate(a, b, in); err != nil {
		return nil, err
	}
	src, err := rng.New(seed)
	if err != nil {
		return nil, err
	}

	pair := Canonicalize(a, b, in)
	bt := &battle{
		rng:      src,
		maxTurns: opts.maxTurns(),
		p1:       newFighter(pair.P1, core.SideP1, pair.In1),
		p2:       newFighter(pair.P2, core.SideP2, pair.In2),
	}
	winner, loser := bt.run()

	return &core.BattleResult{
		BattleID: BattleID(seed),
		Seed:     seed,
		P1:       pair.P1,
		P2:       pair.P2,
		WinnerID: winner.rec.ID,
		LoserID:  loser.rec.ID,
		Turns:    bt.turns,
		Logs:     bt.logs,
	}, nil
}

type fighter struct {
	rec   core.CombatantRecord
	side  core.Side
	maxHP int
	hp    int

	meter       int
	specialUsed bool
	stunned     bool

	shield int

	cheerPending bool
	item         core.ItemKind
	itemUsed     bool
}

func newFighter(rec core.CombatantRecord, side core.Side, in core.SideInputs) *fighter {
	return &fighter{
		rec:          rec,
		side:         side,
		maxHP:        rec.Stats.HP,
		hp:           rec.Stats.HP,
		shield:       rec.Stats.Shield,
		cheerPending: in.Cheer,
		item:         in.Item,
	}
}

func (f *fighter) alive() bool {
	return f.hp > 0
}

func (f *fighter) holds(item core.ItemKind) bool {
	return f.item == item && !f.itemUsed
}

func (f *fighter) special() (string, int) {
	if len(f.rec.Skills) > 0 {
		s := f.rec.Skills[0]
		return s.Name, s.Power
	}
	return defaultSpecialName, stats.DefaultSkillPct
}

func (f *fighter) gainMeter(n int) {
	f.meter = min(f.meter+n, stats.MeterThreshold)
}

type battle struct {
	rng      *rng.Source
	maxTurns int
	p1, p2   *fighter
	turns    int
	logs     []core.BattleLog
}

// run plays turns until a KO, then sudden death if the cap was reached.
func (b *battle) run() (winner, loser *fighter) {
	for turn := 1; turn <= b.maxTurns; turn++ {
		b.turns = turn
		first, second := b.order()
		b.act(turn, first, second)
		if second.alive() {
			b.act(turn, second, first)
		}
		if !b.p1.alive() || !b.p2.alive() {
			return b.verdict()
		}
	}
	return b.suddenDeath()
}

// order returns the faster fighter first; ties go to P1.
func (b *battle) order() (*fighter, *fighter) {
	if b.p2.rec.Stats.Speed > b.p1.rec.Stats.Speed {
		return b.p2, b.p1
	}
	return b.p1, b.p2
}

func (b *battle) verdict() (*fighter, *fighter) {
	if b.p1.alive() {
		return b.p1, b.p2
	}
	return b.p2, b.p1
}

func (b *battle) act(turn int, actor, target *fighter) {
	if !actor.alive() || !target.alive() {
		return
	}

	if actor.stunned {
		actor.stunned = false
		b.logs = append(b.logs, b.baseLog(turn, actor, target, core.ActionStunned))
		return
	}

	action := core.ActionAttack
	if actor.meter >= stats.MeterThreshold && !actor.specialUsed {
		action = core.ActionSpecial
	}
	log := b.baseLog(turn, actor, target, action)

	if actor.holds(core.ItemRepair) && stats.NeedsRepair(actor.hp, actor.maxHP) {
		actor.itemUsed = true
		heal := min(stats.RepairAmount(actor.maxHP), actor.maxHP-actor.hp)
		actor.hp += heal
		log.ItemApplied = true
		log.ItemSide = actor.side
		log.ItemEffect = core.ItemRepair
		log.HealAmount = heal
	}

	b.strike(&log, actor, target)
	b.logs = append(b.logs, log)

	if action == core.ActionAttack && log.Landed() && target.alive() &&
		actor.rec.Stats.Speed >= target.rec.Stats.Speed+stats.PursuitSpeedGap &&
		b.rng.Chance(stats.PursuitChance) {
		pursuit := b.baseLog(turn, actor, target, core.ActionPursuit)
		b.strike(&pursuit, actor, target)
		b.logs = append(b.logs, pursuit)
	}
}

// strike resolves one attack into log.
func (b *battle) strike(log *core.BattleLog, actor, target *fighter) {
	defer b.snapshot(log, actor, target)

	power := stats.BasicPowerPct
	critChance := stats.CritChance(actor.rec.Stats.Speed)
	canMiss := true

	switch log.Action {
	case core.ActionSpecial:
		name, skillPower := actor.special()
		actor.specialUsed = true
		actor.meter = 0
		power = skillPower
		canMiss = false
		log.Overdrive = true
		log.SpecialName = name
	case core.ActionPursuit:
		power = stats.PursuitPowerPct
	}

	var guarded bool
	if log.Action != core.ActionPursuit {
		clash := b.drawStances()
		log.Stance = &clash
		switch clash.Result {
		case core.StanceWin:
			canMiss = false
			critChance += stats.StanceCritBonus
		case core.StanceLose:
			guarded = true
		}
	}

	if canMiss && !b.rng.Chance(stats.HitChance(actor.rec.Stats.Speed, target.rec.Stats.Speed)) {
		log.Miss = true
		return
	}

	variance := b.rng.Between(stats.VarianceMinPct, stats.VarianceMaxPct)
	dmg := stats.BaseDamage(actor.rec.Stats.Attack, target.rec.Stats.Defense, variance, power)

	var mods stats.Modifiers
	if log.Action != core.ActionPursuit && b.rng.Chance(critChance) {
		mods.Critical = true
	}

	if !guarded && target.holds(core.ItemBarrier) && !log.ItemApplied {
		target.itemUsed = true
		guarded = true
		log.ItemApplied = true
		log.ItemSide = target.side
		log.ItemEffect = core.ItemBarrier
	}
	mods.Guarded = guarded

	if actor.cheerPending {
		actor.cheerPending = false
		mods.Cheer = true
		log.CheerSide = actor.side
	}

	if actor.holds(core.ItemBoost) && !log.ItemApplied {
		actor.itemUsed = true
		mods.Boost = true
		log.ItemApplied = true
		log.ItemSide = actor.side
		log.ItemEffect = core.ItemBoost
	}

	dmg = stats.ApplyModifiers(dmg, mods)
	log.Critical = mods.Critical
	log.Guarded = mods.Guarded
	log.CheerApplied = mods.Cheer
	log.Damage = dmg
	b.applyDamage(log, target, dmg)

	if log.Action != core.ActionSpecial {
		actor.gainMeter(stats.MeterOnHit)
	}
	target.gainMeter(stats.MeterOnDamaged)

	if log.Critical && log.Stance != nil && log.Stance.Result == core.StanceWin && target.alive() &&
		b.rng.Chance(stats.StunChance) {
		target.stunned = true
		log.StunApplied = true
	}
	log.Finisher = !target.alive()
}

// applyDamage drains the target's shield before its HP. HP never drops
// below zero, but the log keeps the full damage value.
func (b *battle) applyDamage(log *core.BattleLog, target *fighter, dmg int) {
	if target.shield > 0 {
		absorbed := min(target.shield, dmg)
		target.shield -= absorbed
		dmg -= absorbed
		log.ShieldActive = true
		log.ShieldDamage = absorbed
		log.ShieldHP = target.shield
		log.ShieldBroken = target.shield == 0
	}
	target.hp = max(0, target.hp-dmg)
}

func (b *battle) drawStances() core.StanceClash {
	att := core.Stances[b.rng.IntN(len(core.Stances))]
	def := core.Stances[b.rng.IntN(len(core.Stances))]
	return core.StanceClash{Attacker: att, Defender: def, Result: core.Matchup(att, def)}
}

func (b *battle) baseLog(turn int, actor, target *fighter, action core.ActionKind) core.BattleLog {
	log := core.BattleLog{
		Turn:         turn,
		AttackerID:   actor.rec.ID,
		DefenderID:   target.rec.ID,
		AttackerSide: actor.side,
		Action:       action,
	}
	b.snapshot(&log, actor, target)
	return log
}

func (b *battle) snapshot(log *core.BattleLog, actor, target *fighter) {
	log.AttackerHP = actor.hp
	log.DefenderHP = target.hp
	log.AttackerMeter = actor.meter
	log.DefenderMeter = target.meter
}

// suddenDeath chips both fighters each tick until at least one falls.
// The chip grows by a tenth of the larger max HP per tick, so the last
// tick is always lethal.
func (b *battle) suddenDeath() (winner, loser *fighter) {
	base := max(b.p1.maxHP, b.p2.maxHP)
	for tick := 1; tick <= MaxSuddenDeathTicks; tick++ {
		ratio1 := stats.HPRatio(b.p1.hp, b.p1.maxHP)
		ratio2 := stats.HPRatio(b.p2.hp, b.p2.maxHP)

		chip := stats.SuddenDeathChip(base, tick)
		b.p1.hp = max(0, b.p1.hp-chip)
		b.p2.hp = max(0, b.p2.hp-chip)

		log := b.baseLog(b.maxTurns+tick, b.p1, b.p2, core.ActionSuddenDeath)
		log.AttackerSide = core.SideBoth
		log.Damage = chip
		log.SuddenDeathTick = tick

		switch {
		case b.p1.alive() && b.p2.alive():
			b.logs = append(b.logs, log)
			continue
		case b.p1.alive() != b.p2.alive():
			winner, loser = b.verdict()
		default:
			winner, loser = b.tiebreak(ratio1, ratio2)
		}
		log.Finisher = true
		b.logs = append(b.logs, log)
		return winner, loser
	}
	// Unreachable: the final tick chips at least the larger max HP.
	return b.tiebreak(stats.HPRatio(b.p1.hp, b.p1.maxHP), stats.HPRatio(b.p2.hp, b.p2.maxHP))
}

// tiebreak settles a double KO: higher HP ratio before the tick, then
// higher speed, then P1.
func (b *battle) tiebreak(ratio1, ratio2 float64) (*fighter, *fighter) {
	switch {
	case ratio1 > ratio2:
		return b.p1, b.p2
	case ratio2 > ratio1:
		return b.p2, b.p1
	case b.p2.rec.Stats.Speed > b.p1.rec.Stats.Speed:
		return b.p2, b.p1
	default:
		return b.p1, b.p2
	}
}

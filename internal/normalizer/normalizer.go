// Package normalizer expands battle logs into timed presentation events.
package normalizer

import (
	"fmt"

	"github.com/scanbots/arena/internal/stats"
	"github.com/scanbots/arena/internal/tempo"
	"github.com/scanbots/arena/pkg/core"
)

// Sound cue names.
const (
	SoundStance      = "stance_clash"
	SoundOverdrive   = "overdrive_charge"
	SoundSpecial     = "special_move"
	SoundItem        = "item_use"
	SoundCheer       = "cheer"
	SoundHit         = "hit"
	SoundCritical    = "hit_critical"
	SoundMiss        = "miss"
	SoundGuard       = "guard"
	SoundStun        = "stun"
	SoundShield      = "shield_hit"
	SoundShieldBreak = "shield_break"
	SoundFinisher    = "finisher"
	SoundSuddenDeath = "sudden_death"
	SoundVictory     = "victory"
	SoundDefeat      = "defeat"
)

// Context says who is watching. AID is the viewer's fighter and is shown in
// lane A; BID is the opponent. Names maps fighter ids to display names.
type Context struct {
	AID   string
	BID   string
	Names map[string]string
}

// ContextFor builds a viewer context from a result. An unknown viewer
// watches from P1's side.
func ContextFor(res *core.BattleResult, viewerID string) Context {
	ctx := Context{
		AID: res.P1.ID,
		BID: res.P2.ID,
		Names: map[string]string{
			res.P1.ID: res.P1.DisplayName(),
			res.P2.ID: res.P2.DisplayName(),
		},
	}
	if viewerID == res.P2.ID {
		ctx.AID, ctx.BID = res.P2.ID, res.P1.ID
	}
	return ctx
}

func (c Context) lane(id string) core.Lane {
	switch id {
	case "":
		return core.LaneNone
	case c.AID:
		return core.LaneA
	case c.BID:
		return core.LaneB
	}
	return core.LaneNone
}

func (c Context) name(id string) string {
	if n, ok := c.Names[id]; ok && n != "" {
		return n
	}
	return id
}

// hp returns the viewer-relative HP after a log entry.
func (c Context) hp(l core.BattleLog) core.HPSnapshot {
	of := func(id string) int {
		if id == l.AttackerID {
			return l.AttackerHP
		}
		return l.DefenderHP
	}
	return core.HPSnapshot{A: of(c.AID), B: of(c.BID)}
}

// sideID maps a canonical side on a log back to a fighter id.
func sideID(l core.BattleLog, side core.Side) string {
	if side == l.AttackerSide {
		return l.AttackerID
	}
	return l.DefenderID
}

type builder struct {
	ctx    Context
	events []core.BattleEvent
}

func (b *builder) emit(l core.BattleLog, sev core.Severity, side core.Lane, text, sound string, motion *core.Motion, p core.EventPayload) {
	t := core.PayloadType(p)
	seq := len(b.events)
	b.events = append(b.events, core.BattleEvent{
		ID:       fmt.Sprintf("%d-%d", l.Turn, seq),
		Turn:     l.Turn,
		Seq:      seq,
		Type:     t,
		Side:     side,
		Severity: sev,
		Text:     text,
		Sound:    sound,
		Motion:   motion,
		Delay:    tempo.Delay(t, sev),
		Payload:  p,
	})
}

// ToEvents converts logs into events in a single ordered pass. Within one
// log, events follow a fixed order: stance, overdrive, special, item, cheer,
// action, status, damage, shield, finisher, sudden death. Every event from
// a log shares that log's severity.
func ToEvents(logs []core.BattleLog, ctx Context) []core.BattleEvent {
	b := &builder{ctx: ctx, events: make([]core.BattleEvent, 0, len(logs)*3)}
	for _, l := range logs {
		b.log(l)
	}
	return b.events
}

func (b *builder) log(l core.BattleLog) {
	ctx := b.ctx
	sev := tempo.Classify(l)
	attacker := ctx.lane(l.AttackerID)
	defender := ctx.lane(l.DefenderID)
	if l.AttackerSide == core.SideBoth {
		attacker = core.LaneNone
	}

	if l.Stance != nil {
		b.emit(l, sev, attacker,
			fmt.Sprintf("%s vs %s", l.Stance.Attacker, l.Stance.Defender),
			SoundStance, nil, core.StancePayload{Clash: *l.Stance})
	}

	if l.Overdrive {
		b.emit(l, sev, attacker,
			fmt.Sprintf("%s is overdriving!", ctx.name(l.AttackerID)),
			SoundOverdrive, &core.Motion{Zoom: true, Flash: true},
			core.OverdrivePayload{Meter: stats.MeterThreshold})
	}

	if l.SpecialName != "" {
		b.emit(l, sev, attacker, l.SpecialName, SoundSpecial,
			&core.Motion{Shake: 2, Zoom: true}, core.SpecialPayload{Name: l.SpecialName})
	}

	if l.ItemApplied {
		owner := sideID(l, l.ItemSide)
		b.emit(l, sev, ctx.lane(owner),
			fmt.Sprintf("%s used %s", ctx.name(owner), l.ItemEffect),
			SoundItem, nil, core.ItemPayload{Item: l.ItemEffect, Heal: l.HealAmount})
	}

	if l.CheerApplied {
		fan := sideID(l, l.CheerSide)
		b.emit(l, sev, ctx.lane(fan),
			fmt.Sprintf("The crowd cheers for %s!", ctx.name(fan)),
			SoundCheer, nil, core.CheerPayload{Multiplier: stats.CheerMultiplier})
	}

	if l.Action != core.ActionSuddenDeath {
		b.emit(l, sev, attacker, actionText(ctx, l), actionSound(l), nil,
			core.ActionPayload{Action: l.Action, AttackerID: l.AttackerID, DefenderID: l.DefenderID, Miss: l.Miss})
	}

	if l.Guarded {
		b.emit(l, sev, defender, fmt.Sprintf("%s guards", ctx.name(l.DefenderID)), SoundGuard, nil,
			core.StatusPayload{Status: core.StatusGuard, TargetID: l.DefenderID})
	}
	if l.StunApplied {
		b.emit(l, sev, defender, fmt.Sprintf("%s is stunned", ctx.name(l.DefenderID)), SoundStun, nil,
			core.StatusPayload{Status: core.StatusStun, TargetID: l.DefenderID})
	}

	if l.Landed() {
		sound, motion := SoundHit, &core.Motion{Shake: 1}
		if l.Critical {
			sound, motion = SoundCritical, &core.Motion{Shake: 3, Flash: true}
		}
		b.emit(l, sev, defender, fmt.Sprintf("%d", l.Damage), sound, motion,
			core.DamagePayload{Amount: l.Damage, Critical: l.Critical, TargetID: l.DefenderID, HP: ctx.hp(l)})
	}

	if l.ShieldActive {
		sound := SoundShield
		if l.ShieldBroken {
			sound = SoundShieldBreak
		}
		b.emit(l, sev, defender, "", sound, nil,
			core.ShieldPayload{Absorbed: l.ShieldDamage, Remaining: l.ShieldHP, Broken: l.ShieldBroken})
	}

	if l.Finisher && l.Action != core.ActionSuddenDeath {
		b.emit(l, sev, defender, fmt.Sprintf("%s is down!", ctx.name(l.DefenderID)), SoundFinisher,
			&core.Motion{Shake: 3, Zoom: true, Flash: true}, core.FinisherPayload{TargetID: l.DefenderID})
	}

	if l.SuddenDeathTick > 0 {
		b.emit(l, sev, core.LaneNone, fmt.Sprintf("Sudden death %d", l.SuddenDeathTick), SoundSuddenDeath,
			&core.Motion{Shake: 2, Flash: l.Finisher},
			core.SuddenDeathPayload{Tick: l.SuddenDeathTick, Chip: l.Damage, HP: ctx.hp(l)})
	}
}

func actionText(ctx Context, l core.BattleLog) string {
	attacker := ctx.name(l.AttackerID)
	switch {
	case l.Action == core.ActionStunned:
		return fmt.Sprintf("%s can't move", attacker)
	case l.Miss:
		return fmt.Sprintf("%s missed", attacker)
	case l.Action == core.ActionPursuit:
		return fmt.Sprintf("%s follows up", attacker)
	case l.Action == core.ActionSpecial:
		return fmt.Sprintf("%s unleashes %s", attacker, l.SpecialName)
	}
	return fmt.Sprintf("%s attacks", attacker)
}

func actionSound(l core.BattleLog) string {
	switch {
	case l.Action == core.ActionStunned:
		return SoundStun
	case l.Miss:
		return SoundMiss
	}
	return ""
}

// ResultEvent appends the terminal RESULT event for a finished battle.
// The input slice is never written to.
func ResultEvent(events []core.BattleEvent, winnerID, loserID string, ctx Context) []core.BattleEvent {
	turn := 0
	if n := len(events); n > 0 {
		turn = events[n-1].Turn
	}

	outcome, sound := core.OutcomeLose, SoundDefeat
	if winnerID == ctx.AID {
		outcome, sound = core.OutcomeWin, SoundVictory
	}
	seq := len(events)
	return append(events[:seq:seq], core.BattleEvent{
		ID:       fmt.Sprintf("%d-%d", turn, seq),
		Turn:     turn,
		Seq:      seq,
		Type:     core.EventResult,
		Side:     ctx.lane(winnerID),
		Severity: core.SeverityClimax,
		Text:     fmt.Sprintf("%s wins!", ctx.name(winnerID)),
		Sound:    sound,
		Motion:   &core.Motion{Zoom: true, Flash: true},
		Delay:    tempo.Delay(core.EventResult, core.SeverityClimax),
		Payload:  core.ResultPayload{WinnerID: winnerID, LoserID: loserID, Outcome: outcome},
	})
}

// FromResult normalizes a whole battle for a viewer, RESULT included.
func FromResult(res *core.BattleResult, viewerID string) []core.BattleEvent {
	ctx := ContextFor(res, viewerID)
	return ResultEvent(ToEvents(res.Logs, ctx), res.WinnerID, res.LoserID, ctx)
}

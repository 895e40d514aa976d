package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanbots/arena/internal/engine"
	"github.com/scanbots/arena/internal/tempo"
	"github.com/scanbots/arena/pkg/core"
)

var viewer = Context{AID: "alpha", BID: "beta", Names: map[string]string{"alpha": "Alpha", "beta": "Beta"}}

func types(events []core.BattleEvent) []core.EventType {
	out := make([]core.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestToEvents_PriorityOrder(t *testing.T) {
	l := core.BattleLog{
		Turn:         4,
		AttackerID:   "alpha",
		DefenderID:   "beta",
		AttackerSide: core.SideP1,
		Action:       core.ActionSpecial,
		Damage:       60,
		Critical:     true,
		AttackerHP:   80,
		DefenderHP:   0,
		Stance:       &core.StanceClash{Attacker: core.StancePower, Defender: core.StanceTech, Result: core.StanceWin},
		Overdrive:    true,
		SpecialName:  "Giga Drill",
		ItemApplied:  true,
		ItemSide:     core.SideP1,
		ItemEffect:   core.ItemBoost,
		CheerApplied: true,
		CheerSide:    core.SideP1,
		Guarded:      true,
		StunApplied:  true,
		ShieldActive: true,
		ShieldDamage: 10,
		ShieldBroken: true,
		Finisher:     true,
	}

	events := ToEvents([]core.BattleLog{l}, viewer)

	assert.Equal(t, []core.EventType{
		core.EventStance,
		core.EventOverdrive,
		core.EventSpecial,
		core.EventItem,
		core.EventCheer,
		core.EventAction,
		core.EventStatus,
		core.EventStatus,
		core.EventDamage,
		core.EventShield,
		core.EventFinisher,
	}, types(events))

	for i, e := range events {
		assert.Equal(t, i, e.Seq)
		assert.Equal(t, 4, e.Turn)
		assert.Equal(t, core.SeverityClimax, e.Severity)
		assert.Equal(t, tempo.Delay(e.Type, core.SeverityClimax), e.Delay)
		assert.Equal(t, e.Type, core.PayloadType(e.Payload))
	}
	assert.Equal(t, "4-0", events[0].ID)

	status := events[6].Payload.(core.StatusPayload)
	assert.Equal(t, core.StatusGuard, status.Status)
	assert.Equal(t, core.StatusStun, events[7].Payload.(core.StatusPayload).Status)

	dmg := events[8].Payload.(core.DamagePayload)
	assert.Equal(t, 60, dmg.Amount)
	assert.Equal(t, core.HPSnapshot{A: 80, B: 0}, dmg.HP)
	assert.Equal(t, core.LaneB, events[8].Side)
	assert.Equal(t, core.LaneA, events[0].Side)
}

func TestToEvents_ViewerRelativeLanes(t *testing.T) {
	l := core.BattleLog{
		Turn: 1, AttackerID: "alpha", DefenderID: "beta", AttackerSide: core.SideP1,
		Action: core.ActionAttack, Damage: 12, AttackerHP: 100, DefenderHP: 88,
	}

	fromB := ToEvents([]core.BattleLog{l}, Context{AID: "beta", BID: "alpha"})
	require.Len(t, fromB, 2)
	assert.Equal(t, core.LaneB, fromB[0].Side)
	assert.Equal(t, core.LaneA, fromB[1].Side)
	assert.Equal(t, core.HPSnapshot{A: 88, B: 100}, fromB[1].Payload.(core.DamagePayload).HP)
	assert.Equal(t, core.SeverityNormal, fromB[0].Severity)
}

func TestToEvents_MissAndStun(t *testing.T) {
	logs := []core.BattleLog{
		{Turn: 1, AttackerID: "alpha", DefenderID: "beta", AttackerSide: core.SideP1, Action: core.ActionAttack, Miss: true,
			Stance: &core.StanceClash{Attacker: core.StanceGuard, Defender: core.StanceGuard, Result: core.StanceDraw}},
		{Turn: 1, AttackerID: "beta", DefenderID: "alpha", AttackerSide: core.SideP2, Action: core.ActionStunned},
	}

	events := ToEvents(logs, viewer)
	assert.Equal(t, []core.EventType{core.EventStance, core.EventAction, core.EventAction}, types(events))
	assert.True(t, events[1].Payload.(core.ActionPayload).Miss)
	assert.Equal(t, SoundMiss, events[1].Sound)
	assert.Equal(t, core.ActionStunned, events[2].Payload.(core.ActionPayload).Action)
}

func TestToEvents_SuddenDeath(t *testing.T) {
	l := core.BattleLog{
		Turn: 31, AttackerID: "alpha", DefenderID: "beta", AttackerSide: core.SideBoth,
		Action: core.ActionSuddenDeath, Damage: 20, AttackerHP: 5, DefenderHP: 0,
		SuddenDeathTick: 2, Finisher: true,
	}
	events := ToEvents([]core.BattleLog{l}, viewer)
	require.Len(t, events, 1)
	assert.Equal(t, core.EventSuddenDeath, events[0].Type)
	assert.Equal(t, core.SeverityClimax, events[0].Severity)
	assert.Equal(t, core.SuddenDeathPayload{Tick: 2, Chip: 20, HP: core.HPSnapshot{A: 5, B: 0}}, events[0].Payload)
}

func TestToEvents_Empty(t *testing.T) {
	assert.Empty(t, ToEvents(nil, viewer))

	events := ResultEvent(nil, "alpha", "beta", viewer)
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Seq)
}

func TestResultEvent(t *testing.T) {
	events := ToEvents([]core.BattleLog{{
		Turn: 7, AttackerID: "beta", DefenderID: "alpha", AttackerSide: core.SideP2,
		Action: core.ActionAttack, Damage: 30, Finisher: true,
	}}, viewer)
	n := len(events)

	events = ResultEvent(events, "beta", "alpha", viewer)
	require.Len(t, events, n+1)
	last := events[n]
	assert.Equal(t, core.EventResult, last.Type)
	assert.Equal(t, n, last.Seq)
	assert.Equal(t, 7, last.Turn)
	assert.Equal(t, core.LaneB, last.Side)
	assert.Equal(t, SoundDefeat, last.Sound)
	assert.Equal(t, core.OutcomeLose, last.Payload.(core.ResultPayload).Outcome)
}

func TestResultEvent_LeavesInputUntouched(t *testing.T) {
	events := make([]core.BattleEvent, 1, 4)
	events[0] = core.BattleEvent{ID: "1-0", Turn: 1, Type: core.EventAction}
	spare := events[:2]

	out := ResultEvent(events, "alpha", "beta", viewer)
	require.Len(t, out, 2)
	assert.Equal(t, core.EventResult, out[1].Type)
	assert.Len(t, events, 1)
	assert.Empty(t, spare[1].Type, "spare capacity of the input was written")

	out[0].Text = "changed"
	assert.Empty(t, events[0].Text)
}

func TestFromResult_OrderFidelity(t *testing.T) {
	a := core.CombatantRecord{ID: "alpha", Stats: core.Stats{HP: 150, Attack: 30, Defense: 10, Speed: 20}}
	b := core.CombatantRecord{ID: "beta", Stats: core.Stats{HP: 150, Attack: 25, Defense: 15, Speed: 10}}
	res, err := engine.Simulate(a, b, "fidelity", engine.Inputs{A: core.SideInputs{Cheer: true}})
	require.NoError(t, err)

	events := FromResult(res, "beta")
	require.NotEmpty(t, events)

	for i, e := range events {
		assert.Equal(t, i, e.Seq)
		if i > 0 {
			assert.GreaterOrEqual(t, e.Turn, events[i-1].Turn)
		}
	}
	last := events[len(events)-1]
	assert.Equal(t, core.EventResult, last.Type)
	assert.Equal(t, res.WinnerID, last.Payload.(core.ResultPayload).WinnerID)

	// Re-running yields the same schedule.
	assert.Equal(t, events, FromResult(res, "beta"))
}

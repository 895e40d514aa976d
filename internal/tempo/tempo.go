// Package tempo classifies battle logs into pacing tiers and maps tiers to
// presentation delays. Nothing here affects gameplay.
package tempo

import (
	"math"
	"time"

	"github.com/scanbots/arena/pkg/core"
)

// Base delays per severity tier.
const (
	NormalDelay    = 700 * time.Millisecond
	HighlightDelay = 1000 * time.Millisecond
	ClimaxDelay    = 1500 * time.Millisecond
)

// weights scale the tier delay per event type. Types not listed use 1.
var weights = map[core.EventType]float64{
	core.EventStance:      0.5,
	core.EventOverdrive:   0.8,
	core.EventItem:        0.8,
	core.EventCheer:       0.6,
	core.EventAction:      0.6,
	core.EventStatus:      0.6,
	core.EventShield:      0.7,
	core.EventFinisher:    1.2,
	core.EventSuddenDeath: 1.0,
	core.EventResult:      1.5,
}

// IsClimax reports whether the log carries a climactic moment.
func IsClimax(l core.BattleLog) bool {
	return l.Overdrive || l.SpecialName != "" || l.Action == core.ActionSpecial ||
		l.Finisher || l.ShieldBroken || l.SuddenDeathTick > 0
}

// IsHighlight reports whether the log carries a notable but non-climactic moment.
func IsHighlight(l core.BattleLog) bool {
	return l.Critical || l.Guarded || l.StunApplied || l.ItemApplied ||
		l.CheerApplied || l.Action == core.ActionPursuit
}

// Classify returns the severity tier for a log entry.
func Classify(l core.BattleLog) core.Severity {
	switch {
	case IsClimax(l):
		return core.SeverityClimax
	case IsHighlight(l):
		return core.SeverityHighlight
	default:
		return core.SeverityNormal
	}
}

// BaseDelay returns the tier's base delay. Unknown tiers pace as NORMAL.
func BaseDelay(s core.Severity) time.Duration {
	switch s {
	case core.SeverityClimax:
		return ClimaxDelay
	case core.SeverityHighlight:
		return HighlightDelay
	default:
		return NormalDelay
	}
}

// Weight returns the delay weight for an event type.
func Weight(t core.EventType) float64 {
	if w, ok := weights[t]; ok {
		return w
	}
	return 1
}

// Delay is the scheduled wait after an event of type t at severity s.
func Delay(t core.EventType, s core.Severity) time.Duration {
	return time.Duration(math.Round(float64(BaseDelay(s)) * Weight(t)))
}

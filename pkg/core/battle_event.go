// pkg/core/battle_event.go
package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType discriminates presentation events.
type EventType string

const (
	EventStance      EventType = "STANCE"
	EventOverdrive   EventType = "OVERDRIVE"
	EventSpecial     EventType = "SPECIAL"
	EventItem        EventType = "ITEM"
	EventCheer       EventType = "CHEER"
	EventAction      EventType = "ACTION"
	EventStatus      EventType = "STATUS"
	EventDamage      EventType = "DAMAGE"
	EventShield      EventType = "SHIELD"
	EventFinisher    EventType = "FINISHER"
	EventSuddenDeath EventType = "SUDDEN_DEATH"
	EventResult      EventType = "RESULT"
)

// Severity is the pacing tier of an event. It never affects gameplay.
type Severity string

const (
	SeverityNormal    Severity = "NORMAL"
	SeverityHighlight Severity = "HIGHLIGHT"
	SeverityClimax    Severity = "CLIMAX"
)

// Lane is the viewer-relative side of an event: A is the viewer's robot.
type Lane string

const (
	LaneNone Lane = ""
	LaneA    Lane = "A"
	LaneB    Lane = "B"
)

// Motion is a declarative camera/screen directive.
type Motion struct {
	Shake int  `json:"shake,omitempty"`
	Zoom  bool `json:"zoom,omitempty"`
	Flash bool `json:"flash,omitempty"`
}

// BattleEvent is one normalized presentation unit.
type BattleEvent struct {
	ID       string        `json:"id"`
	Turn     int           `json:"turn"`
	Seq      int           `json:"seq"`
	Type     EventType     `json:"type"`
	Side     Lane          `json:"side,omitempty"`
	Severity Severity      `json:"severity"`
	Text     string        `json:"text,omitempty"`
	Sound    string        `json:"sound,omitempty"`
	Motion   *Motion       `json:"motion,omitempty"`
	Delay    time.Duration `json:"delay"`
	Payload  EventPayload  `json:"payload,omitempty"`
}

// EventPayload is the type-specific part of a BattleEvent.
// The set of implementations is closed to this package.
type EventPayload interface {
	payloadType() EventType
}

// HPSnapshot holds viewer-relative HP after an event.
type HPSnapshot struct {
	A int `json:"a"`
	B int `json:"b"`
}

// StancePayload carries both stances of a clash.
type StancePayload struct {
	Clash StanceClash `json:"clash"`
}

// OverdrivePayload reports the meter that triggered an overdrive.
type OverdrivePayload struct {
	Meter int `json:"meter"`
}

// SpecialPayload names the special move fired.
type SpecialPayload struct {
	Name string `json:"name"`
}

// ItemPayload is an item activation. Heal is set for REPAIR.
type ItemPayload struct {
	Item ItemKind `json:"item"`
	Heal int      `json:"heal,omitempty"`
}

// CheerPayload is the one-time cheer bonus.
type CheerPayload struct {
	Multiplier float64 `json:"multiplier"`
}

// ActionPayload describes who acted on whom, and whether it missed.
type ActionPayload struct {
	Action     ActionKind `json:"action"`
	AttackerID string     `json:"attackerId"`
	DefenderID string     `json:"defenderId"`
	Miss       bool       `json:"miss,omitempty"`
}

// StatusKind names a status shown on a fighter.
type StatusKind string

const (
	StatusGuard StatusKind = "GUARD"
	StatusStun  StatusKind = "STUN"
)

// StatusPayload is a status applied to TargetID.
type StatusPayload struct {
	Status   StatusKind `json:"status"`
	TargetID string     `json:"targetId"`
}

// DamagePayload is HP damage dealt to TargetID, with both fighters' HP after it.
type DamagePayload struct {
	Amount   int        `json:"amount"`
	Critical bool       `json:"critical,omitempty"`
	TargetID string     `json:"targetId"`
	HP       HPSnapshot `json:"hp"`
}

// ShieldPayload is damage soaked by a boss shield.
type ShieldPayload struct {
	Absorbed  int  `json:"absorbed"`
	Remaining int  `json:"remaining"`
	Broken    bool `json:"broken,omitempty"`
}

// FinisherPayload marks the knockout blow.
type FinisherPayload struct {
	TargetID string `json:"targetId"`
}

// SuddenDeathPayload is one sudden-death tick: the chip dealt to both sides.
type SuddenDeathPayload struct {
	Tick int        `json:"tick"`
	Chip int        `json:"chip"`
	HP   HPSnapshot `json:"hp"`
}

// Outcome is the battle result as seen by the viewer.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLose Outcome = "LOSE"
)

// ResultPayload closes the battle; Outcome is relative to the viewer.
type ResultPayload struct {
	WinnerID string  `json:"winnerId"`
	LoserID  string  `json:"loserId"`
	Outcome  Outcome `json:"outcome"`
}

func (StancePayload) payloadType() EventType      { return EventStance }
func (OverdrivePayload) payloadType() EventType   { return EventOverdrive }
func (SpecialPayload) payloadType() EventType     { return EventSpecial }
func (ItemPayload) payloadType() EventType        { return EventItem }
func (CheerPayload) payloadType() EventType       { return EventCheer }
func (ActionPayload) payloadType() EventType      { return EventAction }
func (StatusPayload) payloadType() EventType      { return EventStatus }
func (DamagePayload) payloadType() EventType      { return EventDamage }
func (ShieldPayload) payloadType() EventType      { return EventShield }
func (FinisherPayload) payloadType() EventType    { return EventFinisher }
func (SuddenDeathPayload) payloadType() EventType { return EventSuddenDeath }
func (ResultPayload) payloadType() EventType      { return EventResult }

// PayloadType returns the event type a payload belongs to, or "" for nil.
func PayloadType(p EventPayload) EventType {
	if p == nil {
		return ""
	}
	return p.payloadType()
}

// UnmarshalJSON decodes the payload into the concrete type named by Type.
func (e *BattleEvent) UnmarshalJSON(data []byte) error {
	type plain BattleEvent
	var raw struct {
		plain
		Payload json.RawMessage `json:"payload,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = BattleEvent(raw.plain)
	e.Payload = nil

	if len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		return nil
	}

	payload, err := newPayload(e.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw.Payload, payload); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Type, err)
	}
	e.Payload = derefPayload(payload)
	return nil
}

func newPayload(t EventType) (any, error) {
	switch t {
	case EventStance:
		return &StancePayload{}, nil
	case EventOverdrive:
		return &OverdrivePayload{}, nil
	case EventSpecial:
		return &SpecialPayload{}, nil
	case EventItem:
		return &ItemPayload{}, nil
	case EventCheer:
		return &CheerPayload{}, nil
	case EventAction:
		return &ActionPayload{}, nil
	case EventStatus:
		return &StatusPayload{}, nil
	case EventDamage:
		return &DamagePayload{}, nil
	case EventShield:
		return &ShieldPayload{}, nil
	case EventFinisher:
		return &FinisherPayload{}, nil
	case EventSuddenDeath:
		return &SuddenDeathPayload{}, nil
	case EventResult:
		return &ResultPayload{}, nil
	}
	return nil, fmt.Errorf("unknown event type: %q", t)
}

func derefPayload(p any) EventPayload {
	switch v := p.(type) {
	case *StancePayload:
		return *v
	case *OverdrivePayload:
		return *v
	case *SpecialPayload:
		return *v
	case *ItemPayload:
		return *v
	case *CheerPayload:
		return *v
	case *ActionPayload:
		return *v
	case *StatusPayload:
		return *v
	case *DamagePayload:
		return *v
	case *ShieldPayload:
		return *v
	case *FinisherPayload:
		return *v
	case *SuddenDeathPayload:
		return *v
	case *ResultPayload:
		return *v
	}
	return nil
}

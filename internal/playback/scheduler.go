// Package playback drives a timed walk over normalized battle events.
package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/scanbots/arena/pkg/core"
)

// Defaults applied when Options leave a value at zero.
const (
	DefaultSpeed     = 1
	MaxSpeed         = 3
	DefaultMinDelay  = 120 * time.Millisecond
	DefaultSkipDelay = 30 * time.Millisecond
)

// State is the lifecycle state of a Scheduler.
type State string

const (
	StateIdle     State = "IDLE"
	StateRunning  State = "RUNNING"
	StatePaused   State = "PAUSED"
	StateFinished State = "FINISHED"
	StateDisposed State = "DISPOSED"
)

// Options configure a Scheduler.
// A zero MinDelay or SkipDelay uses the default; a negative one means none.
type Options struct {
	Speed     int
	MinDelay  time.Duration
	SkipDelay time.Duration
	Clock     Clock
	Logger    *slog.Logger

	// OnEvent receives each event with its index, once per pass.
	OnEvent func(ev core.BattleEvent, index int)
	// OnEnd runs once after the last event's wait.
	OnEnd func()
}

// Scheduler delivers events one at a time. Event i is delivered, then the
// scheduler waits max(MinDelay, delay/speed) before delivering event i+1.
//
// Callbacks run without the internal lock held, so they may call back into
// the Scheduler. They never run concurrently with each other.
type Scheduler struct {
	events    []core.BattleEvent
	clock     Clock
	logger    *slog.Logger
	minDelay  time.Duration
	skipDelay time.Duration
	onEvent   func(core.BattleEvent, int)
	onEnd     func()

	mu         sync.Mutex
	state      State
	speed      int
	skipping   bool
	cursor     int // next event to deliver
	current    int // last delivered event, -1 before the first
	timer      Timer
	gen        uint64
	inCallback bool
}

// New creates an idle Scheduler over events. The slice is not copied and
// must not be modified while playing.
func New(events []core.BattleEvent, opts Options) *Scheduler {
	s := &Scheduler{
		events:    events,
		clock:     opts.Clock,
		logger:    opts.Logger,
		minDelay:  orDefault(opts.MinDelay, DefaultMinDelay),
		skipDelay: orDefault(opts.SkipDelay, DefaultSkipDelay),
		onEvent:   opts.OnEvent,
		onEnd:     opts.OnEnd,
		state:     StateIdle,
		speed:     clampSpeed(opts.Speed),
		current:   -1,
	}
	if s.clock == nil {
		s.clock = RealClock()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func orDefault(d, def time.Duration) time.Duration {
	switch {
	case d == 0:
		return def
	case d < 0:
		return 0
	}
	return d
}

func clampSpeed(n int) int {
	return max(DefaultSpeed, min(n, MaxSpeed))
}

// Start begins playback, or resumes it after Pause.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle:
		s.setState(StateRunning)
		s.arm(0)
	case StatePaused:
		s.setState(StateRunning)
		if s.current < 0 {
			s.arm(0)
		} else {
			s.arm(s.wait(s.events[s.current]))
		}
	}
}

// Pause stops the pending timer. Start resumes with a full wait.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return
	}
	s.cancel()
	s.setState(StatePaused)
}

// SetSpeed sets the playback multiplier, clamped to 1..3. The pending wait
// keeps its duration; the new speed applies from the next one.
func (s *Scheduler) SetSpeed(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = clampSpeed(n)
}

// Speed returns the current multiplier.
func (s *Scheduler) Speed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// Skip collapses the pending wait and all later waits to SkipDelay.
// Every remaining event is still delivered.
func (s *Scheduler) Skip() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.skipping || s.state == StateDisposed || s.state == StateFinished {
		return
	}
	s.skipping = true
	s.logger.Debug("playback skipping", "remaining", len(s.events)-s.cursor)

	// From inside a callback the next wait has not been armed yet.
	if s.state == StateRunning && !s.inCallback && s.timer != nil {
		s.arm(s.skipDelay)
	}
}

// Reset rewinds to the first event and restarts playback.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisposed {
		return
	}
	s.cancel()
	s.cursor = 0
	s.current = -1
	s.skipping = false
	s.setState(StateRunning)
	s.arm(0)
}

// Dispose stops playback for good. Once it returns no further callback
// begins; a callback already running is allowed to finish.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisposed {
		return
	}
	s.cancel()
	s.setState(StateDisposed)
}

// Current returns the last delivered event.
func (s *Scheduler) Current() (core.BattleEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < 0 {
		return core.BattleEvent{}, false
	}
	return s.events[s.current], true
}

// CurrentIndex returns the index of the last delivered event, or -1.
func (s *Scheduler) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// IsFinished reports whether every event has been delivered and OnEnd ran.
func (s *Scheduler) IsFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateFinished
}

// State returns the lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Len returns the number of events.
func (s *Scheduler) Len() int {
	return len(s.events)
}

// wait is the pause after ev. Caller holds mu.
func (s *Scheduler) wait(ev core.BattleEvent) time.Duration {
	if s.skipping {
		return s.skipDelay
	}
	d := max(ev.Delay, 0) / time.Duration(s.speed)
	return max(d, s.minDelay)
}

// arm replaces the pending timer. Caller holds mu.
func (s *Scheduler) arm(d time.Duration) {
	s.cancel()
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() { s.step(gen) })
}

// cancel stops the pending timer and invalidates any step already in
// flight. Caller holds mu.
func (s *Scheduler) cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// setState records a transition. Caller holds mu.
func (s *Scheduler) setState(st State) {
	if s.state == st {
		return
	}
	s.logger.Debug("playback state", "from", s.state, "to", st, "cursor", s.cursor)
	s.state = st
}

// step delivers the next event, or finishes when none remain.
func (s *Scheduler) step(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.timer = nil

	if s.cursor >= len(s.events) {
		s.setState(StateFinished)
		s.inCallback = true
		s.mu.Unlock()

		if s.onEnd != nil {
			s.onEnd()
		}

		s.mu.Lock()
		s.inCallback = false
		s.mu.Unlock()
		return
	}

	idx := s.cursor
	ev := s.events[idx]
	s.current = idx
	s.cursor++
	s.inCallback = true
	s.mu.Unlock()

	if s.onEvent != nil {
		s.onEvent(ev, idx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inCallback = false
	// The callback paused, reset or disposed us.
	if gen != s.gen || s.state != StateRunning {
		return
	}
	s.arm(s.wait(ev))
}

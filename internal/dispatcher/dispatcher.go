package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/scanbots/arena/pkg/core"
)

// HandlerFunc presents one battle event (sound, motion, HUD update...).
type HandlerFunc func(core.BattleEvent) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// ErrNoHandler is returned when an event type has no handler and no fallback.
var ErrNoHandler = errors.New("no handler for event type")

// Dispatcher routes battle events to the presentation handlers registered
// for their type. Several handlers may share a type; they run in
// registration order.
type Dispatcher struct {
	handlers map[core.EventType][]HandlerFunc
	fallback HandlerFunc
	logger   Logger

	// OTEL metrics
	queueSize  metric.Int64ObservableGauge
	dispatched metric.Int64Counter
	dropped    metric.Int64Counter

	// Track buffers for gauge callback
	mu      sync.RWMutex
	buffers map[string]chan core.BattleEvent
	workers sync.WaitGroup
	closed  bool
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[core.EventType][]HandlerFunc),
		buffers:  make(map[string]chan core.BattleEvent),
		logger:   logger,
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"playback.queue.size",
		metric.WithDescription("Current number of events waiting in handler queues"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for name, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("handler", name)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.dispatched, err = m.Int64Counter(
		"playback.events.dispatched",
		metric.WithDescription("Total events handled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatched counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"playback.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given event type with optional configuration.
func (d *Dispatcher) Register(t core.EventType, h HandlerFunc, opts ...Option) {
	name := fmt.Sprintf("%s#%d", t, len(d.handlers[t]))
	d.handlers[t] = append(d.handlers[t], d.wrap(name, h, opts))
}

// Fallback sets the handler for event types nothing else is registered for.
func (d *Dispatcher) Fallback(h HandlerFunc, opts ...Option) {
	d.fallback = d.wrap("fallback", h, opts)
}

func (d *Dispatcher) wrap(name string, h HandlerFunc, opts []Option) HandlerFunc {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(name, cfg.bufferSize, cfg.blocking, handler)
	}

	if cfg.logged {
		handler = d.withLogging(name, handler)
	}

	return handler
}

// Dispatch runs every handler registered for the event's type. Errors from
// individual handlers are joined.
func (d *Dispatcher) Dispatch(e core.BattleEvent) error {
	hs, ok := d.handlers[e.Type]
	if !ok {
		if d.fallback == nil {
			return fmt.Errorf("%w: %s", ErrNoHandler, e.Type)
		}
		hs = []HandlerFunc{d.fallback}
	}

	var errs []error
	for _, h := range hs {
		if err := h(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HasHandler returns true if a handler is registered for the event type.
func (d *Dispatcher) HasHandler(t core.EventType) bool {
	_, ok := d.handlers[t]
	return ok
}

// Close stops accepting buffered events and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, buf := range d.buffers {
		close(buf)
	}
	d.mu.Unlock()

	d.workers.Wait()
}

func (d *Dispatcher) withBuffer(name string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan core.BattleEvent, size)

	d.mu.Lock()
	d.buffers[name] = buffer
	d.mu.Unlock()

	attr := attribute.String("handler", name)

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range buffer {
			if err := h(e); err != nil {
				d.logger.Error("buffered handler failed", "handler", name, "event", e.ID, "error", err)
			}
			d.dispatched.Add(context.Background(), 1, metric.WithAttributes(attr))
		}
	}()

	send := func(e core.BattleEvent) error {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return fmt.Errorf("dispatcher closed: %s", name)
		}
		if blocking {
			buffer <- e
			return nil
		}
		select {
		case buffer <- e:
			return nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(attr))
			return fmt.Errorf("queue full: %s", name)
		}
	}
	return send
}

func (d *Dispatcher) withLogging(name string, h HandlerFunc) HandlerFunc {
	return func(e core.BattleEvent) error {
		start := time.Now()
		d.logger.Debug("handling event", "handler", name, "event", e.ID, "severity", e.Severity)

		err := h(e)

		if err != nil {
			d.logger.Error("event failed", "handler", name, "event", e.ID, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "handler", name, "event", e.ID, "duration", time.Since(start))
		}

		return err
	}
}

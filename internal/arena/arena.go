// Package arena runs training battles end to end: simulate, normalize,
// archive and report.
package arena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/scanbots/arena/internal/engine"
	"github.com/scanbots/arena/internal/normalizer"
	"github.com/scanbots/arena/internal/rng"
	"github.com/scanbots/arena/internal/storage"
	"github.com/scanbots/arena/pkg/core"
)

const instrumentationName = "github.com/scanbots/arena/internal/arena"

// Telemetry receives a summary of every archived battle.
type Telemetry interface {
	WriteBattle(ctx context.Context, rec *core.BattleRecord) error
}

// Request describes one training battle. Argument order does not matter:
// the pair is canonicalized before simulation.
type Request struct {
	A, B             core.CombatantRecord
	InputsA, InputsB core.SideInputs

	// ViewerID picks whose point of view the events take. Defaults to A.
	ViewerID string
	// Seed overrides the seed derived from the pair.
	Seed   string
	Reward any
}

// Match is a finished battle ready for playback.
type Match struct {
	Record *core.BattleRecord
	Events []core.BattleEvent
}

// Options configure a Service. Storage and Telemetry are optional.
type Options struct {
	Engine    engine.Options
	Storage   storage.Backend
	Telemetry Telemetry
	Logger    *slog.Logger
	Meter     metric.Meter
	Now       func() time.Time
}

// Service runs training battles.
type Service struct {
	engine    engine.Options
	storage   storage.Backend
	telemetry Telemetry
	logger    *slog.Logger
	now       func() time.Time

	battles metric.Int64Counter
	turns   metric.Int64Histogram
}

// New creates a Service. Metrics go to the global meter unless Options.Meter is set.
func New(opts Options) (*Service, error) {
	s := &Service{
		engine:    opts.Engine,
		storage:   opts.Storage,
		telemetry: opts.Telemetry,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	m := opts.Meter
	if m == nil {
		m = otel.Meter(instrumentationName)
	}

	var err error
	s.battles, err = m.Int64Counter(
		"arena.battles.simulated",
		metric.WithDescription("Total training battles simulated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating battles counter: %w", err)
	}

	s.turns, err = m.Int64Histogram(
		"arena.battle.turns",
		metric.WithDescription("Turns taken per battle"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 15, 20, 25, 30, 35, 40),
	)
	if err != nil {
		return nil, fmt.Errorf("creating turns histogram: %w", err)
	}

	return s, nil
}

// RunTraining simulates the battle, builds its event timeline and archives it.
func (s *Service) RunTraining(ctx context.Context, req Request) (*Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == "" {
		seed = rng.SeedForPair(req.A.ID, req.B.ID)
	}
	viewer := req.ViewerID
	if viewer == "" {
		viewer = req.A.ID
	}
	if viewer != req.A.ID && viewer != req.B.ID {
		return nil, fmt.Errorf("%w: viewer %q is not in the battle", engine.ErrInvalidCombatant, viewer)
	}

	start := time.Now()
	res, err := engine.SimulateWith(s.engine, req.A, req.B, seed, engine.Inputs{A: req.InputsA, B: req.InputsB})
	if err != nil {
		s.logger.Warn("battle rejected", "a", req.A.ID, "b", req.B.ID, "error", err)
		return nil, err
	}
	res.Reward = req.Reward

	events := normalizer.FromResult(res, viewer)
	rec := &core.BattleRecord{
		BattleID:  res.BattleID,
		ViewerID:  viewer,
		Result:    *res,
		Events:    events,
		CreatedAt: s.now().UTC(),
	}

	attrs := metric.WithAttributes(attribute.Bool("sudden_death", res.SuddenDeath()))
	s.battles.Add(ctx, 1, attrs)
	s.turns.Record(ctx, int64(res.Turns), attrs)

	s.logger.Info("battle simulated",
		"battle", res.BattleID,
		"winner", res.WinnerID,
		"turns", res.Turns,
		"events", len(events),
		"suddenDeath", res.SuddenDeath(),
		"duration", time.Since(start),
	)

	if s.storage != nil {
		if err := s.storage.RecordBattle(rec); err != nil {
			return nil, fmt.Errorf("recording battle %s: %w", rec.BattleID, err)
		}
	}
	if s.telemetry != nil {
		if err := s.telemetry.WriteBattle(ctx, rec); err != nil {
			s.logger.Warn("battle telemetry failed", "battle", rec.BattleID, "error", err)
		}
	}

	return &Match{Record: rec, Events: events}, nil
}

// Replay loads an archived battle.
func (s *Service) Replay(ctx context.Context, battleID string) (*Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, errors.New("no storage configured")
	}

	rec, err := s.storage.LoadBattle(battleID)
	if err != nil {
		return nil, err
	}
	events := rec.Events
	if len(events) == 0 {
		// Records archived without events are rebuilt from the logs.
		events = normalizer.FromResult(&rec.Result, rec.ViewerID)
	}
	s.logger.Debug("battle loaded", "battle", battleID, "events", len(events))
	return &Match{Record: rec, Events: events}, nil
}

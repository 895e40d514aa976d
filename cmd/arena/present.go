package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/scanbots/arena/internal/config"
	"github.com/scanbots/arena/internal/dispatcher"
	"github.com/scanbots/arena/internal/logging"
	"github.com/scanbots/arena/internal/playback"
	"github.com/scanbots/arena/pkg/core"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// printer writes events as text lines. Scheduler callbacks arrive from timer
// goroutines, so writes are serialized.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) line(e core.BattleEvent, extra string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "[%2d] ", e.Turn)
	switch e.Severity {
	case core.SeverityClimax:
		b.WriteString("!! ")
	case core.SeverityHighlight:
		b.WriteString("!  ")
	default:
		b.WriteString("   ")
	}
	if e.Text != "" {
		b.WriteString(e.Text)
	} else {
		b.WriteString(string(e.Type))
	}
	if extra != "" {
		b.WriteString("  ")
		b.WriteString(extra)
	}
	_, err := fmt.Fprintln(p.out, b.String())
	return err
}

func newPresenter(out io.Writer, log zerolog.Logger, battle *logging.BattleContext) (*dispatcher.Dispatcher, error) {
	d, err := dispatcher.New(logging.NewPlaybackLogger(log.With().Str("component", "playback").Logger(), battle))
	if err != nil {
		return nil, err
	}
	p := &printer{out: out}

	d.Fallback(func(e core.BattleEvent) error { return p.line(e, "") })
	d.Register(core.EventDamage, func(e core.BattleEvent) error {
		dmg, _ := e.Payload.(core.DamagePayload)
		return p.line(e, fmt.Sprintf("(A %d / B %d)", dmg.HP.A, dmg.HP.B))
	}, dispatcher.Logged())
	d.Register(core.EventSuddenDeath, func(e core.BattleEvent) error {
		sd, _ := e.Payload.(core.SuddenDeathPayload)
		return p.line(e, fmt.Sprintf("(A %d / B %d)", sd.HP.A, sd.HP.B))
	}, dispatcher.Logged())
	d.Register(core.EventFinisher, func(e core.BattleEvent) error { return p.line(e, "") }, dispatcher.Logged())
	d.Register(core.EventResult, func(e core.BattleEvent) error {
		res, _ := e.Payload.(core.ResultPayload)
		return p.line(e, "=> "+string(res.Outcome))
	}, dispatcher.Logged())
	return d, nil
}

// play paces events to out and returns when the last one has been shown
// or ctx is cancelled.
func play(ctx context.Context, out io.Writer, events []core.BattleEvent, skip bool, log zerolog.Logger, battle *logging.BattleContext) error {
	if len(events) == 0 {
		return nil
	}

	d, err := newPresenter(out, log, battle)
	if err != nil {
		return err
	}
	defer d.Close()

	pc := config.GetPlaybackConfig()
	done := make(chan struct{})
	s := playback.New(events, playback.Options{
		Speed:     pc.Speed,
		MinDelay:  pc.MinDelay,
		SkipDelay: pc.SkipDelay,
		OnEvent: func(ev core.BattleEvent, _ int) {
			if err := d.Dispatch(ev); err != nil {
				log.Warn().Err(err).Str("event", ev.ID).Msg("presenting event failed")
			}
		},
		OnEnd: func() { close(done) },
	})

	s.Start()
	if skip {
		s.Skip()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.Dispose()
		return ctx.Err()
	}
}

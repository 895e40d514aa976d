package logging

import (
	"context"
	"errors"
	"log/slog"
)

// FanoutHandler delivers each record to every sink enabled for its level:
// the log file, Graylog and the OTel bridge.
type FanoutHandler struct {
	sinks []slog.Handler
}

// NewFanoutHandler drops nil sinks.
func NewFanoutHandler(sinks ...slog.Handler) *FanoutHandler {
	h := &FanoutHandler{}
	for _, s := range sinks {
		if s != nil {
			h.sinks = append(h.sinks, s)
		}
	}
	return h
}

func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle keeps going when a sink fails and reports every failure.
func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range h.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *FanoutHandler) derive(fn func(slog.Handler) slog.Handler) *FanoutHandler {
	out := &FanoutHandler{sinks: make([]slog.Handler, len(h.sinks))}
	for i, s := range h.sinks {
		out.sinks[i] = fn(s)
	}
	return out
}

package logging

import (
	"context"
	"log/slog"
	"sync"
)

// ContextProvider returns attributes to add to every record at log time.
type ContextProvider func() []slog.Attr

// BattleContext tracks the battle being simulated or played back so that
// records logged anywhere in the process carry its id.
type BattleContext struct {
	mu       sync.RWMutex
	battleID string
	viewerID string
}

// Set marks battleID as the active battle.
func (c *BattleContext) Set(battleID, viewerID string) {
	c.mu.Lock()
	c.battleID, c.viewerID = battleID, viewerID
	c.mu.Unlock()
}

// Clear forgets the active battle.
func (c *BattleContext) Clear() {
	c.Set("", "")
}

// Attrs is a ContextProvider. It returns nothing while no battle is active.
func (c *BattleContext) Attrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.battleID == "" {
		return nil
	}
	attrs := []slog.Attr{slog.String("battle", c.battleID)}
	if c.viewerID != "" {
		attrs = append(attrs, slog.String("viewer", c.viewerID))
	}
	return attrs
}

// ContextHandler wraps another handler and injects the provider's attributes.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{
		inner:    inner,
		provider: provider,
	}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		if attrs := h.provider(); len(attrs) > 0 {
			r = r.Clone()
			r.AddAttrs(attrs...)
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{
		inner:    h.inner.WithAttrs(attrs),
		provider: h.provider,
	}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{
		inner:    h.inner.WithGroup(name),
		provider: h.provider,
	}
}

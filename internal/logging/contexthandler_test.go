package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandler_InjectsDynamicAttrs(t *testing.T) {
	var buf bytes.Buffer
	cursor := 0
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.String("battleId", "b-1"), slog.Int("cursor", cursor)}
	})
	logger := slog.New(h)

	logger.Info("first")
	cursor = 3
	logger.Info("second")

	out := buf.String()
	assert.Contains(t, out, "battleId=b-1")
	assert.Contains(t, out, "cursor=0")
	assert.Contains(t, out, "cursor=3")
}

func TestContextHandler_WithAttrsKeepsProvider(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.String("viewer", "alpha")}
	})

	slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "replay")})).Info("hi")

	assert.Contains(t, buf.String(), "component=replay")
	assert.Contains(t, buf.String(), "viewer=alpha")
	assert.Same(t, h, h.WithGroup(""))
}

func TestBattleContext_Attrs(t *testing.T) {
	var c BattleContext
	assert.Empty(t, c.Attrs())

	c.Set("b-9", "")
	assert.Equal(t, []slog.Attr{slog.String("battle", "b-9")}, c.Attrs())

	c.Set("b-9", "bot-a")
	assert.Len(t, c.Attrs(), 2)

	c.Clear()
	assert.Empty(t, c.Attrs())
}

func TestSetup_TagsRecordsWithActiveBattle(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", nil)

	m.Logger().Info("before")
	m.Battle().Set("b-42", "bot-a")
	m.Logger().Info("during")
	m.Battle().Clear()
	m.Logger().Info("after")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.NotContains(t, lines[1], "battle=")
	assert.Contains(t, lines[2], "battle=b-42")
	assert.Contains(t, lines[2], "viewer=bot-a")
	assert.NotContains(t, lines[3], "battle=")
}

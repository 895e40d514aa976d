package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

// PlaybackLogger feeds dispatcher diagnostics into zerolog, stamped with the
// battle being played.
type PlaybackLogger struct {
	logger zerolog.Logger
	battle *BattleContext
}

// NewPlaybackLogger wraps logger. battle may be nil.
func NewPlaybackLogger(logger zerolog.Logger, battle *BattleContext) *PlaybackLogger {
	return &PlaybackLogger{logger: logger, battle: battle}
}

func (l *PlaybackLogger) Debug(msg string, keysAndValues ...any) {
	l.emit(l.logger.Debug(), msg, keysAndValues)
}

func (l *PlaybackLogger) Info(msg string, keysAndValues ...any) {
	l.emit(l.logger.Info(), msg, keysAndValues)
}

func (l *PlaybackLogger) Error(msg string, keysAndValues ...any) {
	l.emit(l.logger.Error(), msg, keysAndValues)
}

func (l *PlaybackLogger) emit(e *zerolog.Event, msg string, keysAndValues []any) {
	if e == nil {
		return
	}
	if l.battle != nil {
		for _, a := range l.battle.Attrs() {
			e = e.Str(a.Key, a.Value.String())
		}
	}
	e.Fields(toFields(keysAndValues)).Msg(msg)
}

// badKey holds a value with no key, matching slog.
const badKey = "!BADKEY"

// toFields pairs up keysAndValues. Non-string keys are formatted; a trailing
// value lands under badKey.
func toFields(keysAndValues []any) map[string]any {
	fields := make(map[string]any, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 == len(keysAndValues) {
			fields[badKey] = keysAndValues[i]
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

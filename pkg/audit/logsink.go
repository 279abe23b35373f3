package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/econcal/econcal/pkg/logging"
)

// LogSink writes audit events to a structured logger. It is the default
// sink when no broker is configured.
type LogSink struct {
	logger *zerolog.Logger
}

// NewLogSink creates a LogSink. A nil logger uses the default.
func NewLogSink(logger *zerolog.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger}
}

// Emit implements Sink.
func (s *LogSink) Emit(_ context.Context, ev Event) error {
	e := s.logger.Info().
		Str("kind", string(ev.Kind)).
		Str("event_id", ev.EventID).
		Time("at", ev.At)
	if ev.Provider != "" {
		e = e.Str("provider", string(ev.Provider))
	}
	if ev.Name != "" {
		e = e.Str("name", ev.Name)
	}
	if ev.OldStatus != "" {
		e = e.Str("old_status", string(ev.OldStatus))
	}
	if ev.NewStatus != "" {
		e = e.Str("new_status", string(ev.NewStatus))
	}
	if ev.OldTime != nil {
		e = e.Time("old_time", *ev.OldTime)
	}
	if ev.NewTime != nil {
		e = e.Time("new_time", *ev.NewTime)
	}
	if ev.Detail != "" {
		e = e.Str("detail", ev.Detail)
	}
	e.Msg("audit event")
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error { return nil }

// Package audit defines the audit/notification events the reconciliation
// engine's callers emit on lifecycle transitions, and the sinks that carry
// them. The engine itself never emits; syncers and the stale detector's
// callers do, using the transition detail the merge engine returns.
package audit

import (
	"context"
	"time"

	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/providers"
)

// Kind classifies an audit event.
type Kind string

const (
	// EventCreated records the first sighting of a canonical event.
	EventCreated Kind = "event.created"
	// EventRescheduled records a genuine schedule change.
	EventRescheduled Kind = "event.rescheduled"
	// EventCancelled records a stale-detection cancellation.
	EventCancelled Kind = "event.cancelled"
	// EventReinstated records a cancelled event reappearing as scheduled.
	EventReinstated Kind = "event.reinstated"
	// EventDriftMatched records a fallback identity match accepted under
	// relaxed confidence because of suspected provider clock drift.
	EventDriftMatched Kind = "event.drift_matched"
)

// Event is one audit record.
type Event struct {
	Kind      Kind          `json:"kind"`
	EventID   string        `json:"event_id"`
	Provider  providers.ID  `json:"provider,omitempty"`
	Name      string        `json:"name,omitempty"`
	OldStatus events.Status `json:"old_status,omitempty"`
	NewStatus events.Status `json:"new_status,omitempty"`
	OldTime   *time.Time    `json:"old_time,omitempty"`
	NewTime   *time.Time    `json:"new_time,omitempty"`
	At        time.Time     `json:"at"`
	Detail    string        `json:"detail,omitempty"`
}

// Sink receives audit events. Emission failures are the sink's problem to
// report; callers log and continue, they never fail a sync over auditing.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
	Close() error
}

// NopSink discards every event.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(context.Context, Event) error { return nil }

// Close implements Sink.
func (NopSink) Close() error { return nil }

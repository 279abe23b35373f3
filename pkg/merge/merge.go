// Package merge implements the canonical-event merge engine: a pure
// transform from (existing canonical record, incoming provider record) to
// the next canonical record.
//
// Each precedence rule lives in its own field-group function so the rules
// are auditable and testable in isolation rather than reconstructable only
// by reading call order. The engine performs no I/O and never mutates its
// inputs; callers persist the outcome and emit audit events from the
// returned transition.
package merge

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/econcal/econcal/pkg/errors"
	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/normalize"
	"github.com/econcal/econcal/pkg/providers"
)

// DefaultDriftTolerance is the largest timestamp disagreement treated as
// clock skew rather than a reschedule.
const DefaultDriftTolerance = 5 * time.Minute

// Options controls one merge application.
type Options struct {
	// IsReschedule marks the incoming record as a genuine reschedule, as
	// classified by the identity resolver's wide match.
	IsReschedule bool

	// Priority is the provider priority registry. Nil uses the default.
	Priority *providers.Registry

	// DriftTolerance overrides DefaultDriftTolerance when positive.
	DriftTolerance time.Duration

	// Now is the merge instant. Zero uses the current time; tests and
	// idempotency checks inject a fixed value.
	Now utc.Time

	// FallbackID is the store-generated ID to use when the incoming record
	// has no currency and therefore no deterministic hash. Only consulted
	// when creating a new record.
	FallbackID string
}

// Transition describes what one merge application did, with enough detail
// for the caller to emit audit events. The engine itself emits nothing.
type Transition struct {
	Created      bool
	Rescheduled  bool
	Reinstated   bool
	StatusBefore events.Status
	StatusAfter  events.Status
	PreviousTime utc.Time
	NewTime      utc.Time
}

// Outcome is the result of one merge application.
type Outcome struct {
	Event      *events.CanonicalEvent
	Transition Transition
	// Diagnostics are non-fatal conflicts observed during the merge, such
	// as a currency disagreement. The merge itself always succeeds for
	// well-formed input.
	Diagnostics []error
}

// Merge produces the next canonical record from an optional existing record
// and one incoming provider record. Pure: no I/O, inputs unmodified.
func Merge(existing *events.CanonicalEvent, incoming events.ProviderRecord, opts Options) Outcome {
	now := opts.Now
	if now.IsZero() {
		now = utc.Now()
	}
	reg := opts.Priority
	if reg == nil {
		reg = providers.Default()
	}
	drift := opts.DriftTolerance
	if drift <= 0 {
		drift = DefaultDriftTolerance
	}

	out := Outcome{}
	next := existing.Clone()
	if next == nil {
		next = seed(incoming, opts.FallbackID, now)
		out.Transition.Created = true
	}
	out.Transition.StatusBefore = next.Status
	out.Transition.PreviousTime = next.ScheduledAt

	if !out.Transition.Created {
		if diag := reconcileCurrency(next, incoming); diag != nil {
			out.Diagnostics = append(out.Diagnostics, diag)
		}
		reconcileSchedule(next, incoming, reg, drift, opts.IsReschedule, &out.Transition)
	}

	next.LastSeenInFeed = now

	reinstated := reinstate(next, incoming)
	out.Transition.Reinstated = reinstated

	fillClassification(next, incoming)
	updateSource(next, incoming, now)
	if !reinstated {
		progressStatus(next, incoming)
	}

	scan := reg.ScanOrder(presentProviders(next))
	winners := selectFields(next, scan)
	selectName(next, scan)
	selectWinner(next, winners, incoming.Provider)

	next.UpdatedAt = now

	out.Transition.StatusAfter = next.Status
	out.Transition.NewTime = next.ScheduledAt
	out.Event = next
	return out
}

// seed initializes a fresh canonical record from the first sighting.
func seed(incoming events.ProviderRecord, fallbackID string, now utc.Time) *events.CanonicalEvent {
	key := normalize.Key(incoming.Name)

	id := events.DeterministicID(incoming.Currency, key, incoming.ScheduledAt)
	if incoming.Currency == "" && fallbackID != "" {
		id = fallbackID
	}

	original := incoming.ScheduledAt
	return &events.CanonicalEvent{
		ID:             id,
		Name:           incoming.Name,
		NormalizedName: key,
		Currency:       incoming.Currency,
		ScheduledAt:    incoming.ScheduledAt,
		OriginalAt:     &original,
		Status:         events.StatusScheduled,
		Sources:        make(events.Sources),
		CreatedAt:      now,
	}
}

// reconcileCurrency fills an empty currency and reports, without applying,
// any conflict between existing and incoming. The existing value wins.
func reconcileCurrency(next *events.CanonicalEvent, incoming events.ProviderRecord) error {
	if incoming.Currency == "" {
		return nil
	}
	if next.Currency == "" {
		next.Currency = incoming.Currency
		return nil
	}
	if next.Currency != incoming.Currency {
		return &errors.CurrencyConflictError{
			EventID:  next.ID,
			Existing: next.Currency,
			Incoming: incoming.Currency,
			Provider: string(incoming.Provider),
		}
	}
	return nil
}

// reconcileSchedule applies minor-drift correction and genuine reschedules.
// Drift at or under the tolerance is clock skew: the timestamp is adopted
// when the incoming provider outranks (or equals) the current winner, and
// no reschedule is recorded. Beyond the tolerance the timestamp only moves
// when the identity resolver classified the sighting as a reschedule.
func reconcileSchedule(next *events.CanonicalEvent, incoming events.ProviderRecord, reg *providers.Registry, drift time.Duration, isReschedule bool, tr *Transition) {
	diff := incoming.ScheduledAt.Sub(next.ScheduledAt)
	if diff < 0 {
		diff = -diff
	}
	if diff == 0 {
		return
	}

	if diff <= drift {
		if next.WinnerSource == "" || reg.Rank(incoming.Provider) <= reg.Rank(next.WinnerSource) {
			next.ScheduledAt = incoming.ScheduledAt
		}
		return
	}

	if isReschedule {
		from := next.ScheduledAt
		next.RescheduledFrom = &from
		if next.OriginalAt == nil {
			next.OriginalAt = &from
		}
		next.ScheduledAt = incoming.ScheduledAt
		tr.Rescheduled = true
	}
}

// reinstate flips a cancelled event back to scheduled when a provider
// reports it scheduled again. The caller emits the audit event.
func reinstate(next *events.CanonicalEvent, incoming events.ProviderRecord) bool {
	if next.Status == events.StatusCancelled && incoming.Status == events.StatusScheduled {
		next.Status = events.StatusScheduled
		return true
	}
	return false
}

// fillClassification fills category and impact first-writer-wins; these
// fields are rarely contested so no priority scan is involved.
func fillClassification(next *events.CanonicalEvent, incoming events.ProviderRecord) {
	if next.Category == nil && incoming.Category != nil {
		v := *incoming.Category
		next.Category = &v
	}
	if next.Impact == nil && incoming.Impact != nil {
		v := *incoming.Impact
		next.Impact = &v
	}
}

// updateSource refreshes the incoming provider's sources entry. Identity
// fields are overwritten; parsed fields keep the provider's previous value
// when the sighting omits them (provider-level field memory, independent of
// the canonical winner).
func updateSource(next *events.CanonicalEvent, incoming events.ProviderRecord, now utc.Time) {
	if next.Sources == nil {
		next.Sources = make(events.Sources)
	}
	prev := next.Sources[incoming.Provider]

	entry := events.SourceEntry{
		OriginalName: incoming.Name,
		LastSeenAt:   now,
		RawPayload:   incoming.RawPayload,
		Parsed: events.ParsedFields{
			Actual:   retain(incoming.Actual, prev.Parsed.Actual),
			Forecast: retain(incoming.Forecast, prev.Parsed.Forecast),
			Previous: retain(incoming.Previous, prev.Parsed.Previous),
			Outcome:  retain(incoming.Outcome, prev.Parsed.Outcome),
			Strength: retain(incoming.Strength, prev.Parsed.Strength),
			Quality:  retain(incoming.Quality, prev.Parsed.Quality),
		},
	}
	next.Sources[incoming.Provider] = entry
}

// progressStatus advances the status monotonically; it never regresses.
func progressStatus(next *events.CanonicalEvent, incoming events.ProviderRecord) {
	status := incoming.Status
	if !status.Valid() {
		status = events.StatusScheduled
	}
	next.Status = events.Max(next.Status, status)
}

// fieldWinners records which provider backed each selected field.
type fieldWinners struct {
	actual   providers.ID
	forecast providers.ID
	previous providers.ID
}

// selectFields picks actual, forecast, and previous from the highest-
// priority provider holding a non-nil value, scanning in priority order.
func selectFields(next *events.CanonicalEvent, scan []providers.ID) fieldWinners {
	var w fieldWinners
	next.Actual, w.actual = firstValue(next, scan, func(p events.ParsedFields) *string { return p.Actual })
	next.Forecast, w.forecast = firstValue(next, scan, func(p events.ParsedFields) *string { return p.Forecast })
	next.Previous, w.previous = firstValue(next, scan, func(p events.ParsedFields) *string { return p.Previous })
	return w
}

func firstValue(next *events.CanonicalEvent, scan []providers.ID, field func(events.ParsedFields) *string) (*string, providers.ID) {
	for _, id := range scan {
		entry, ok := next.Sources[id]
		if !ok {
			continue
		}
		if v := field(entry.Parsed); v != nil {
			out := *v
			return &out, id
		}
	}
	return nil, ""
}

// selectName picks the display name from the highest-priority provider that
// supplied one, falling back to the existing name. The normalized key
// follows the chosen name.
func selectName(next *events.CanonicalEvent, scan []providers.ID) {
	for _, id := range scan {
		entry, ok := next.Sources[id]
		if !ok || entry.OriginalName == "" {
			continue
		}
		next.Name = entry.OriginalName
		next.NormalizedName = normalize.Key(entry.OriginalName)
		return
	}
}

// selectWinner sets winnerSource: the provider backing actual, else
// forecast, else previous, else the prior winner, else the incoming
// provider.
func selectWinner(next *events.CanonicalEvent, w fieldWinners, incoming providers.ID) {
	switch {
	case w.actual != "":
		next.WinnerSource = w.actual
	case w.forecast != "":
		next.WinnerSource = w.forecast
	case w.previous != "":
		next.WinnerSource = w.previous
	case next.WinnerSource != "":
	default:
		next.WinnerSource = incoming
	}
}

// presentProviders lists the providers currently holding a sources entry.
func presentProviders(next *events.CanonicalEvent) []providers.ID {
	out := make([]providers.ID, 0, len(next.Sources))
	for id := range next.Sources {
		out = append(out, id)
	}
	return out
}

func retain(incoming, previous *string) *string {
	if incoming != nil {
		v := *incoming
		return &v
	}
	if previous != nil {
		v := *previous
		return &v
	}
	return nil
}

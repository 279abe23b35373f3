// Package syncer provides the per-provider-family sync orchestrators: the
// entry points that pull normalized records from a provider adapter, run
// them through identity resolution and the merge engine, and persist the
// outcome via chunked batch writes.
//
// Records are processed sequentially in feed order within one run, so an
// earlier record in a batch can become the match target for a later one.
// Per-record failures are isolated; only store-level batch failures abort a
// run, and the next scheduled invocation retries relying on merge
// idempotency.
package syncer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/econcal/econcal/pkg/audit"
	"github.com/econcal/econcal/pkg/errors"
	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/identity"
	"github.com/econcal/econcal/pkg/logging"
	"github.com/econcal/econcal/pkg/merge"
	"github.com/econcal/econcal/pkg/providers"
	"github.com/econcal/econcal/pkg/store"
)

// ProviderAdapter returns normalized provider records for a date range.
// Timestamps must already be UTC; the engine performs no timezone inference.
type ProviderAdapter interface {
	Provider() providers.ID
	Fetch(ctx context.Context, from, to time.Time) ([]events.ProviderRecord, error)
}

// Config holds settings shared by the sync orchestrators.
type Config struct {
	// Registry is the provider priority registry. Nil uses the default.
	Registry *providers.Registry
	// ChunkSize caps batch write sizes. <= 0 uses the store default.
	ChunkSize int
	// DriftTolerance is the clock-skew bound passed to the merge engine.
	DriftTolerance time.Duration
}

// runner carries the collaborators both orchestrator families share.
type runner struct {
	adapter ProviderAdapter
	store   store.Store
	idCfg   identity.Config
	cfg     Config
	sink    audit.Sink
	logger  *zerolog.Logger
}

func newRunner(adapter ProviderAdapter, st store.Store, idCfg identity.Config, cfg Config, sink audit.Sink, logger *zerolog.Logger) runner {
	if cfg.Registry == nil {
		cfg.Registry = providers.Default()
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return runner{adapter: adapter, store: st, idCfg: idCfg, cfg: cfg, sink: sink, logger: logger}
}

// matchFunc is one family's identity-resolution strategy. The resolver it
// receives is layered over the current run's pending merges so earlier
// records in the batch are visible as match targets.
type matchFunc func(ctx context.Context, resolver *identity.Resolver, rec events.ProviderRecord) (*identity.Match, error)

// run pulls the feed and merges every record through the engine.
func (r *runner) run(ctx context.Context, from, to time.Time, match matchFunc) (*Result, error) {
	result := &Result{Provider: r.adapter.Provider(), Started: time.Now().UTC()}
	defer func() { result.Finished = time.Now().UTC() }()

	records, err := r.adapter.Fetch(ctx, from, to)
	if err != nil {
		return result, err
	}

	pending := newOverlay(r.store)
	resolver := identity.NewResolver(pending, r.idCfg, r.logger)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++

		if err := rec.Validate(); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, errors.NewValidationError(string(rec.Provider), "record", err.Error()))
			r.logger.Warn().Err(err).Str("provider", string(rec.Provider)).Msg("skipping invalid record")
			continue
		}

		m, err := match(logging.WithLogger(ctx, r.logger), resolver, rec)
		if err != nil {
			result.Errors = append(result.Errors, err)
			result.Skipped++
			continue
		}

		var existing *events.CanonicalEvent
		opts := merge.Options{
			Priority:       r.cfg.Registry,
			DriftTolerance: r.cfg.DriftTolerance,
		}
		if m != nil {
			existing = m.Event
			opts.IsReschedule = m.IsReschedule
		} else if rec.Currency == "" {
			opts.FallbackID = r.store.NewID()
		}

		outcome := merge.Merge(existing, rec, opts)
		for _, diag := range outcome.Diagnostics {
			r.logger.Warn().Err(diag).Str("event_id", outcome.Event.ID).Msg("merge diagnostic")
		}

		pending.put(outcome.Event)
		r.record(ctx, rec, m, outcome, result)
	}

	entries := pending.entries()
	if len(entries) > 0 {
		if err := r.store.BatchUpsert(ctx, entries, r.cfg.ChunkSize); err != nil {
			return result, err
		}
	}
	return result, nil
}

// record updates counters and emits the audit events for one merge.
func (r *runner) record(ctx context.Context, rec events.ProviderRecord, m *identity.Match, outcome merge.Outcome, result *Result) {
	tr := outcome.Transition
	ev := outcome.Event
	now := time.Now().UTC()

	switch {
	case tr.Created:
		result.Created++
		r.emit(ctx, audit.Event{
			Kind:      audit.EventCreated,
			EventID:   ev.ID,
			Provider:  rec.Provider,
			Name:      ev.Name,
			NewStatus: ev.Status,
			NewTime:   timePtr(ev.ScheduledAt.Time),
			At:        now,
		})
	default:
		result.Merged++
	}

	if tr.Rescheduled {
		result.Rescheduled++
		r.emit(ctx, audit.Event{
			Kind:     audit.EventRescheduled,
			EventID:  ev.ID,
			Provider: rec.Provider,
			Name:     ev.Name,
			OldTime:  timePtr(tr.PreviousTime.Time),
			NewTime:  timePtr(tr.NewTime.Time),
			At:       now,
		})
	}
	if tr.Reinstated {
		result.Reinstated++
		r.emit(ctx, audit.Event{
			Kind:      audit.EventReinstated,
			EventID:   ev.ID,
			Provider:  rec.Provider,
			Name:      ev.Name,
			OldStatus: tr.StatusBefore,
			NewStatus: tr.StatusAfter,
			At:        now,
		})
	}
	if m != nil && m.Fallback {
		r.emit(ctx, audit.Event{
			Kind:     audit.EventDriftMatched,
			EventID:  ev.ID,
			Provider: rec.Provider,
			Name:     ev.Name,
			At:       now,
			Detail:   "accepted via relaxed drift window",
		})
	}
}

// emit sends an audit event; failures are logged, never fatal to a sync.
func (r *runner) emit(ctx context.Context, ev audit.Event) {
	if err := r.sink.Emit(ctx, ev); err != nil {
		r.logger.Warn().Err(err).Str("kind", string(ev.Kind)).Str("event_id", ev.EventID).Msg("audit emission failed")
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

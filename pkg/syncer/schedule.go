package syncer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/econcal/econcal/pkg/audit"
	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/identity"
	"github.com/econcal/econcal/pkg/stale"
	"github.com/econcal/econcal/pkg/store"
)

// ScheduleSyncer ingests the authoritative weekly schedule feed. It resolves
// identity with a narrow same-instant match first, then the wide identity
// match with reschedule classification, and runs the stale detector after a
// successful sync cycle so missing events are flagged while "not seen this
// cycle" still means something.
type ScheduleSyncer struct {
	runner   runner
	detector *stale.Detector
}

// NewScheduleSyncer creates the authoritative-schedule orchestrator.
// detector may be nil to skip post-sync stale detection.
func NewScheduleSyncer(adapter ProviderAdapter, st store.Store, idCfg identity.Config, cfg Config, sink audit.Sink, detector *stale.Detector, logger *zerolog.Logger) *ScheduleSyncer {
	return &ScheduleSyncer{
		runner:   newRunner(adapter, st, idCfg, cfg, sink, logger),
		detector: detector,
	}
}

// Run syncs the schedule feed for [from, to] and then scans for stale
// events. A failed batch write aborts before stale detection; the next
// scheduled invocation retries the whole cycle.
func (s *ScheduleSyncer) Run(ctx context.Context, from, to time.Time) (*Result, error) {
	result, err := s.runner.run(ctx, from, to, s.match)
	if err != nil {
		return result, err
	}

	if s.detector != nil {
		staleResult, err := s.detector.Run(ctx, stale.RunOptions{})
		if err != nil {
			return result, err
		}
		now := time.Now().UTC()
		for _, flagged := range staleResult.Flagged {
			result.Cancelled++
			s.runner.emit(ctx, audit.Event{
				Kind:      audit.EventCancelled,
				EventID:   flagged.Event.ID,
				Name:      flagged.Event.Name,
				OldStatus: flagged.StatusBefore,
				NewStatus: flagged.Event.Status,
				At:        now,
				Detail:    "not confirmed by schedule feed within staleness window",
			})
		}
	}
	return result, nil
}

func (s *ScheduleSyncer) match(ctx context.Context, resolver *identity.Resolver, rec events.ProviderRecord) (*identity.Match, error) {
	m, err := resolver.Narrow(ctx, rec)
	if err != nil || m != nil {
		return m, err
	}
	return resolver.Wide(ctx, rec)
}

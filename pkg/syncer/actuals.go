package syncer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/econcal/econcal/pkg/audit"
	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/identity"
	"github.com/econcal/econcal/pkg/store"
)

// ActualsSyncer ingests an actuals-reporting feed. Actuals providers report
// against the schedule already seeded by the authority, so identity is
// resolved with the narrow same-instant match first and the relaxed
// fallback window second for providers with known clock drift. No-match
// records create new canonical events: false negatives are safer than
// merging into an unrelated event's history.
type ActualsSyncer struct {
	runner runner
}

// NewActualsSyncer creates an actuals-feed orchestrator.
func NewActualsSyncer(adapter ProviderAdapter, st store.Store, idCfg identity.Config, cfg Config, sink audit.Sink, logger *zerolog.Logger) *ActualsSyncer {
	return &ActualsSyncer{runner: newRunner(adapter, st, idCfg, cfg, sink, logger)}
}

// Run syncs the actuals feed for [from, to].
func (s *ActualsSyncer) Run(ctx context.Context, from, to time.Time) (*Result, error) {
	return s.runner.run(ctx, from, to, s.match)
}

func (s *ActualsSyncer) match(ctx context.Context, resolver *identity.Resolver, rec events.ProviderRecord) (*identity.Match, error) {
	m, err := resolver.Narrow(ctx, rec)
	if err != nil || m != nil {
		return m, err
	}
	return resolver.Fallback(ctx, rec)
}

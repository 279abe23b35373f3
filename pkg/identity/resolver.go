// Package identity resolves which existing canonical record, if any, an
// incoming provider record should merge into.
//
// Two lookup strategies exist. The narrow match expects the provider to
// report at essentially the same instant as the canonical record and uses a
// tight time window. The wide identity match searches a multi-day window for
// reschedule candidates, guarded so that terminal (already released) events
// and weekly-cadence recurrences are never mistaken for reschedules. A
// fallback match relaxes the narrow window for providers with known clock
// drift; every fallback hit is logged as a drift warning.
//
// All lookups are scoped by exact currency. A record without a currency can
// never match.
package identity

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/logging"
	"github.com/econcal/econcal/pkg/similarity"
	"github.com/econcal/econcal/pkg/store"
)

// Config holds the resolver's tunable windows and thresholds. The defaults
// are product-tuned values, not mathematical truths; override them through
// configuration when production data says otherwise.
type Config struct {
	// NarrowWindow bounds same-instant matches (± around the incoming time).
	NarrowWindow time.Duration
	// NarrowThreshold is the minimum similarity for a narrow match.
	NarrowThreshold float64

	// WideWindow bounds reschedule-candidate searches.
	WideWindow time.Duration
	// WideThreshold is the minimum similarity for a wide identity match.
	WideThreshold float64

	// FallbackWindow bounds the relaxed match for clock-drifting providers.
	FallbackWindow time.Duration
	// FallbackThreshold is the minimum similarity for a fallback match.
	FallbackThreshold float64

	// DriftTolerance is the largest time difference treated as clock skew
	// rather than a genuine reschedule.
	DriftTolerance time.Duration

	// WeeklyMaxMultiple is how many week multiples the cadence guard checks.
	WeeklyMaxMultiple int
	// WeeklyTolerance is the ± slack around an exact week multiple.
	WeeklyTolerance time.Duration
}

// DefaultConfig returns the default resolver tuning.
func DefaultConfig() Config {
	return Config{
		NarrowWindow:      5 * time.Minute,
		NarrowThreshold:   0.8,
		WideWindow:        15 * 24 * time.Hour,
		WideThreshold:     0.85,
		FallbackWindow:    180 * time.Minute,
		FallbackThreshold: 0.6,
		DriftTolerance:    5 * time.Minute,
		WeeklyMaxMultiple: 4,
		WeeklyTolerance:   24 * time.Hour,
	}
}

// Match is an accepted identity resolution.
type Match struct {
	Event *events.CanonicalEvent
	// Score is the similarity between the incoming and matched names.
	Score float64
	// TimeDiff is the absolute difference between the candidate's and the
	// incoming record's scheduled instants.
	TimeDiff time.Duration
	// IsReschedule is set when the match implies the event genuinely moved.
	IsReschedule bool
	// Fallback is set when the match came from the relaxed drift window and
	// should not be trusted at full confidence.
	Fallback bool
}

// Resolver finds merge targets for incoming provider records.
type Resolver struct {
	querier store.Querier
	cfg     Config
	logger  *zerolog.Logger
}

// NewResolver creates a Resolver over the given candidate querier.
func NewResolver(querier store.Querier, cfg Config, logger *zerolog.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{querier: querier, cfg: cfg, logger: logger}
}

// Narrow finds a canonical record scheduled within the narrow window of the
// incoming record. Returns nil when nothing scores above the threshold.
func (r *Resolver) Narrow(ctx context.Context, rec events.ProviderRecord) (*Match, error) {
	return r.windowMatch(ctx, rec, r.cfg.NarrowWindow, r.cfg.NarrowThreshold, false)
}

// Fallback finds a canonical record within the relaxed drift window. Every
// hit is logged as a drift warning; callers should surface it to their audit
// sink for observability.
func (r *Resolver) Fallback(ctx context.Context, rec events.ProviderRecord) (*Match, error) {
	m, err := r.windowMatch(ctx, rec, r.cfg.FallbackWindow, r.cfg.FallbackThreshold, true)
	if err != nil || m == nil {
		return m, err
	}
	r.logger.Warn().
		Str("provider", string(rec.Provider)).
		Str("event_id", m.Event.ID).
		Str("name", rec.Name).
		Dur("time_diff", m.TimeDiff).
		Float64("score", m.Score).
		Msg("fallback identity match: provider clock drift suspected")
	return m, nil
}

func (r *Resolver) windowMatch(ctx context.Context, rec events.ProviderRecord, window time.Duration, threshold float64, fallback bool) (*Match, error) {
	if rec.Currency == "" {
		return nil, nil
	}

	at := rec.ScheduledAt.Time
	candidates, err := r.querier.QueryByCurrencyAndTimeRange(ctx, rec.Currency, at.Add(-window), at.Add(window))
	if err != nil {
		return nil, err
	}

	best, score := bestCandidate(rec.Name, at, candidates)
	if best == nil || score < threshold {
		return nil, nil
	}

	return &Match{
		Event:    best,
		Score:    score,
		TimeDiff: absDiff(best.ScheduledAt.Time, at),
		Fallback: fallback,
	}, nil
}

// Wide finds a reschedule candidate within the wide identity window. The
// best-scoring candidate is rejected outright when it already occurred
// (terminal status) or when the time difference sits on a weekly cadence;
// in both cases the incoming record must become a new occurrence.
func (r *Resolver) Wide(ctx context.Context, rec events.ProviderRecord) (*Match, error) {
	if rec.Currency == "" {
		return nil, nil
	}

	at := rec.ScheduledAt.Time
	candidates, err := r.querier.QueryByCurrencyAndTimeRange(ctx, rec.Currency, at.Add(-r.cfg.WideWindow), at.Add(r.cfg.WideWindow))
	if err != nil {
		return nil, err
	}

	best, score := bestCandidate(rec.Name, at, candidates)
	if best == nil || score < r.cfg.WideThreshold {
		return nil, nil
	}

	diff := absDiff(best.ScheduledAt.Time, at)

	// Guard 1: the candidate already occurred. Merging would overwrite
	// history, so the incoming record becomes a new occurrence.
	if best.Status.Terminal() {
		r.logger.Debug().
			Str("event_id", best.ID).
			Str("status", string(best.Status)).
			Str("name", rec.Name).
			Msg("wide match rejected: candidate in terminal state")
		return nil, nil
	}

	// Guard 2: a time difference near a week multiple means a recurring
	// weekly series (e.g. jobless claims), not a reschedule.
	if WeeklyCadence(diff, r.cfg.WeeklyMaxMultiple, r.cfg.WeeklyTolerance) {
		r.logger.Debug().
			Str("event_id", best.ID).
			Dur("time_diff", diff).
			Str("name", rec.Name).
			Msg("wide match rejected: weekly cadence")
		return nil, nil
	}

	return &Match{
		Event:        best,
		Score:        score,
		TimeDiff:     diff,
		IsReschedule: diff > r.cfg.DriftTolerance,
	}, nil
}

// WeeklyCadence reports whether diff is within tolerance of an exact
// multiple of 7 days, for multiples 1..maxWeeks.
func WeeklyCadence(diff time.Duration, maxWeeks int, tolerance time.Duration) bool {
	if diff < 0 {
		diff = -diff
	}
	week := 7 * 24 * time.Hour
	for n := 1; n <= maxWeeks; n++ {
		target := time.Duration(n) * week
		delta := diff - target
		if delta < 0 {
			delta = -delta
		}
		if delta <= tolerance {
			return true
		}
	}
	return false
}

// bestCandidate returns the highest-scoring candidate by name similarity.
// Score ties break on smaller time difference, then lexical ID, so
// resolution is deterministic regardless of store iteration order.
func bestCandidate(name string, at time.Time, candidates []*events.CanonicalEvent) (*events.CanonicalEvent, float64) {
	var best *events.CanonicalEvent
	bestScore := -1.0
	var bestDiff time.Duration
	for _, cand := range candidates {
		score := similarity.Score(name, cand.Name)
		diff := absDiff(cand.ScheduledAt.Time, at)
		switch {
		case score > bestScore:
		case score == bestScore && diff < bestDiff:
		case score == bestScore && diff == bestDiff && best != nil && cand.ID < best.ID:
		default:
			continue
		}
		best = cand
		bestScore = score
		bestDiff = diff
	}
	if best == nil {
		return nil, 0
	}
	return best, bestScore
}

func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

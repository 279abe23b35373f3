// Package stale flags future canonical events the authoritative schedule
// provider has stopped confirming, and repairs reschedule markers that were
// really weekly-cadence false positives.
//
// The detector is designed to run once per authoritative-schedule sync
// cycle, immediately after that sync completes, so "not seen this cycle" is
// a meaningful cancellation signal. Both operations are idempotent and
// support a dry-run mode that reports candidates without writing.
package stale

import (
	"context"
	"time"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/identity"
	"github.com/econcal/econcal/pkg/logging"
	"github.com/econcal/econcal/pkg/providers"
	"github.com/econcal/econcal/pkg/store"
)

// Config holds the detector's tunables.
type Config struct {
	// StaleDays is how long the authority may go silent on a future event
	// before it is considered cancelled.
	StaleDays int
	// Authority is the provider whose silence signals cancellation.
	Authority providers.ID
	// Horizon bounds how far into the future the scan looks.
	Horizon time.Duration
	// RepairLookback bounds how far into the past the repair pass scans.
	RepairLookback time.Duration
	// WeeklyMaxMultiple is how many week multiples the repair pass checks.
	// The repair pass looks further than the resolver's guard because it
	// also covers records written before the guard existed.
	WeeklyMaxMultiple int
	// WeeklyTolerance is the ± slack around an exact week multiple.
	WeeklyTolerance time.Duration
	// ChunkSize caps batch write sizes.
	ChunkSize int
}

// DefaultConfig returns the default detector tuning.
func DefaultConfig() Config {
	return Config{
		StaleDays:         3,
		Authority:         providers.NFS,
		Horizon:           90 * 24 * time.Hour,
		RepairLookback:    180 * 24 * time.Hour,
		WeeklyMaxMultiple: 8,
		WeeklyTolerance:   24 * time.Hour,
		ChunkSize:         store.DefaultChunkSize,
	}
}

// Flagged is one event the detector marked (or would mark, in dry-run).
type Flagged struct {
	Event        *events.CanonicalEvent
	StatusBefore events.Status
	LastSeen     time.Time
}

// Result summarizes one detector run.
type Result struct {
	Scanned int
	Flagged []Flagged
	DryRun  bool
}

// Repaired is one reschedule marker the repair pass cleared.
type Repaired struct {
	Event           *events.CanonicalEvent
	RescheduledFrom time.Time
	TimeDiff        time.Duration
}

// RepairResult summarizes one repair pass.
type RepairResult struct {
	Scanned  int
	Repaired []Repaired
	DryRun   bool
}

// Detector scans the canonical collection for stale and mis-rescheduled
// events.
type Detector struct {
	store  store.Store
	cfg    Config
	logger *zerolog.Logger
}

// New creates a Detector over the given store.
func New(st store.Store, cfg Config, logger *zerolog.Logger) *Detector {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.StaleDays <= 0 {
		cfg.StaleDays = 3
	}
	if cfg.Authority == "" {
		cfg.Authority = providers.NFS
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 90 * 24 * time.Hour
	}
	if cfg.RepairLookback <= 0 {
		cfg.RepairLookback = 180 * 24 * time.Hour
	}
	if cfg.WeeklyMaxMultiple <= 0 {
		cfg.WeeklyMaxMultiple = 8
	}
	if cfg.WeeklyTolerance <= 0 {
		cfg.WeeklyTolerance = 24 * time.Hour
	}
	return &Detector{store: st, cfg: cfg, logger: logger}
}

// RunOptions controls one detector run.
type RunOptions struct {
	// Now is the scan instant. Zero uses the current time.
	Now time.Time
	// DryRun reports candidates without writing.
	DryRun bool
}

// Run flags future events with an authority contribution whose last feed
// confirmation is older than the staleness window, marking them cancelled.
// Re-running against an already-cancelled record is a no-op.
func (d *Detector) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	candidates, err := d.store.QueryByTimeRange(ctx, now, now.Add(d.cfg.Horizon))
	if err != nil {
		return nil, err
	}

	cutoff := now.Add(-time.Duration(d.cfg.StaleDays) * 24 * time.Hour)
	result := &Result{Scanned: len(candidates), DryRun: opts.DryRun}
	var entries []store.Entry

	for _, ev := range candidates {
		if ev.Status == events.StatusCancelled {
			continue
		}
		if _, seeded := ev.Sources[d.cfg.Authority]; !seeded {
			continue
		}
		if !ev.LastSeenInFeed.Before(utcTime(cutoff)) {
			continue
		}

		flagged := ev.Clone()
		statusBefore := flagged.Status
		flagged.Status = events.StatusCancelled
		flagged.UpdatedAt = utcTime(now)

		result.Flagged = append(result.Flagged, Flagged{
			Event:        flagged,
			StatusBefore: statusBefore,
			LastSeen:     ev.LastSeenInFeed.Time,
		})
		entries = append(entries, store.Entry{ID: flagged.ID, Record: flagged})

		d.logger.Info().
			Str("event_id", flagged.ID).
			Str("name", flagged.Name).
			Time("last_seen", ev.LastSeenInFeed.Time).
			Bool("dry_run", opts.DryRun).
			Msg("stale event flagged as cancelled")
	}

	if !opts.DryRun && len(entries) > 0 {
		if err := d.store.BatchUpsert(ctx, entries, d.cfg.ChunkSize); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func utcTime(t time.Time) utc.Time {
	return utc.Time{Time: t}
}

// RepairWeeklyReschedules clears rescheduledFrom markers whose time
// difference sits on a weekly cadence: those records were periodic
// recurrences wrongly merged as reschedules. When the original scheduled
// instant was only set by that false positive it is reset too.
func (d *Detector) RepairWeeklyReschedules(ctx context.Context, opts RunOptions) (*RepairResult, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	candidates, err := d.store.QueryByTimeRange(ctx, now.Add(-d.cfg.RepairLookback), now.Add(d.cfg.Horizon))
	if err != nil {
		return nil, err
	}

	result := &RepairResult{Scanned: len(candidates), DryRun: opts.DryRun}
	var entries []store.Entry

	for _, ev := range candidates {
		if ev.RescheduledFrom == nil {
			continue
		}
		diff := ev.ScheduledAt.Sub(*ev.RescheduledFrom)
		if !identity.WeeklyCadence(diff, d.cfg.WeeklyMaxMultiple, d.cfg.WeeklyTolerance) {
			continue
		}

		repaired := ev.Clone()
		from := *repaired.RescheduledFrom
		repaired.RescheduledFrom = nil
		cleared := []string{"rescheduled_from"}
		if repaired.OriginalAt != nil && repaired.OriginalAt.Equal(from) {
			scheduled := repaired.ScheduledAt
			repaired.OriginalAt = &scheduled
		}
		repaired.UpdatedAt = utcTime(now)

		result.Repaired = append(result.Repaired, Repaired{
			Event:           repaired,
			RescheduledFrom: from.Time,
			TimeDiff:        diff,
		})
		entries = append(entries, store.Entry{ID: repaired.ID, Record: repaired, Clear: cleared})

		d.logger.Info().
			Str("event_id", repaired.ID).
			Str("name", repaired.Name).
			Dur("time_diff", diff).
			Bool("dry_run", opts.DryRun).
			Msg("weekly-cadence reschedule marker cleared")
	}

	if !opts.DryRun && len(entries) > 0 {
		if err := d.store.BatchUpsert(ctx, entries, d.cfg.ChunkSize); err != nil {
			return nil, err
		}
	}
	return result, nil
}

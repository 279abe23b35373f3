package stale

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/logging"
	"github.com/econcal/econcal/pkg/providers"
	"github.com/econcal/econcal/pkg/store"
	"github.com/econcal/econcal/pkg/store/memory"
)

func ts(s string) utc.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return utc.Time{Time: t}
}

var now = ts("2026-03-01T00:00:00Z").Time

// futureEvent builds an authority-seeded future event last confirmed by the
// feed daysAgo days before the scan instant.
func futureEvent(id string, daysAgo int) *events.CanonicalEvent {
	return &events.CanonicalEvent{
		ID:             id,
		Name:           "ECB Press Conference",
		NormalizedName: "ecb press conference",
		Currency:       "EUR",
		ScheduledAt:    utc.Time{Time: now.Add(10 * 24 * time.Hour)},
		Status:         events.StatusScheduled,
		LastSeenInFeed: utc.Time{Time: now.Add(-time.Duration(daysAgo) * 24 * time.Hour)},
		Sources: events.Sources{
			providers.NFS: {OriginalName: "ECB Press Conference"},
		},
	}
}

func seed(t *testing.T, s *memory.Store, evs ...*events.CanonicalEvent) {
	t.Helper()
	entries := make([]store.Entry, 0, len(evs))
	for _, ev := range evs {
		entries = append(entries, store.Entry{ID: ev.ID, Record: ev})
	}
	require.NoError(t, s.BatchUpsert(context.Background(), entries, 0))
}

func newDetector(t *testing.T, s *memory.Store) *Detector {
	t.Helper()
	return New(s, DefaultConfig(), logging.NewTestLogger(t).Logger)
}

func TestRunFlagsStaleEvents(t *testing.T) {
	s := memory.New()
	seed(t, s,
		futureEvent("evt_stale", 4),
		futureEvent("evt_fresh", 2),
	)
	d := newDetector(t, s)

	res, err := d.Run(context.Background(), RunOptions{Now: now})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Scanned)
	require.Len(t, res.Flagged, 1)
	assert.Equal(t, "evt_stale", res.Flagged[0].Event.ID)
	assert.Equal(t, events.StatusScheduled, res.Flagged[0].StatusBefore)

	stale, err := s.GetByID(context.Background(), "evt_stale")
	require.NoError(t, err)
	assert.Equal(t, events.StatusCancelled, stale.Status)

	fresh, err := s.GetByID(context.Background(), "evt_fresh")
	require.NoError(t, err)
	assert.Equal(t, events.StatusScheduled, fresh.Status,
		"two days of silence is inside the three-day window")
}

func TestRunSkipsEventsWithoutAuthority(t *testing.T) {
	s := memory.New()
	ev := futureEvent("evt_mql_only", 10)
	ev.Sources = events.Sources{providers.MQL: {OriginalName: "ECB Press Conference"}}
	seed(t, s, ev)
	d := newDetector(t, s)

	res, err := d.Run(context.Background(), RunOptions{Now: now})
	require.NoError(t, err)
	assert.Empty(t, res.Flagged,
		"only authority silence signals cancellation; other providers are not schedule sources")
}

func TestRunSkipsPastEvents(t *testing.T) {
	s := memory.New()
	ev := futureEvent("evt_past", 10)
	ev.ScheduledAt = utc.Time{Time: now.Add(-24 * time.Hour)}
	seed(t, s, ev)
	d := newDetector(t, s)

	res, err := d.Run(context.Background(), RunOptions{Now: now})
	require.NoError(t, err)
	assert.Zero(t, res.Scanned, "past events are outside the scan window")
}

func TestRunDryRun(t *testing.T) {
	s := memory.New()
	seed(t, s, futureEvent("evt_stale", 4))
	d := newDetector(t, s)

	res, err := d.Run(context.Background(), RunOptions{Now: now, DryRun: true})
	require.NoError(t, err)
	require.Len(t, res.Flagged, 1)
	assert.True(t, res.DryRun)

	got, err := s.GetByID(context.Background(), "evt_stale")
	require.NoError(t, err)
	assert.Equal(t, events.StatusScheduled, got.Status, "dry run must not write")
}

func TestRunIsIdempotent(t *testing.T) {
	s := memory.New()
	seed(t, s, futureEvent("evt_stale", 4))
	d := newDetector(t, s)

	_, err := d.Run(context.Background(), RunOptions{Now: now})
	require.NoError(t, err)

	res, err := d.Run(context.Background(), RunOptions{Now: now})
	require.NoError(t, err)
	assert.Empty(t, res.Flagged, "already-cancelled events are not re-flagged")
}

func TestRepairWeeklyReschedules(t *testing.T) {
	s := memory.New()

	weeklyFrom := utc.Time{Time: now.Add(-6 * 24 * time.Hour)}
	weekly := &events.CanonicalEvent{
		ID:              "evt_weekly",
		Name:            "Initial Jobless Claims",
		NormalizedName:  "initial jobless claims",
		Currency:        "USD",
		ScheduledAt:     utc.Time{Time: now.Add(24 * time.Hour)},
		OriginalAt:      &weeklyFrom,
		RescheduledFrom: &weeklyFrom,
		Status:          events.StatusScheduled,
	}

	genuineFrom := utc.Time{Time: now.Add(-3 * 24 * time.Hour)}
	genuine := &events.CanonicalEvent{
		ID:              "evt_genuine",
		Name:            "FOMC Meeting Minutes",
		NormalizedName:  "fomc meeting minutes",
		Currency:        "USD",
		ScheduledAt:     utc.Time{Time: now.Add(24 * time.Hour)},
		RescheduledFrom: &genuineFrom,
		Status:          events.StatusScheduled,
	}
	seed(t, s, weekly, genuine)
	d := newDetector(t, s)

	res, err := d.RepairWeeklyReschedules(context.Background(), RunOptions{Now: now})
	require.NoError(t, err)
	require.Len(t, res.Repaired, 1)
	assert.Equal(t, "evt_weekly", res.Repaired[0].Event.ID)

	repaired, err := s.GetByID(context.Background(), "evt_weekly")
	require.NoError(t, err)
	assert.Nil(t, repaired.RescheduledFrom)
	require.NotNil(t, repaired.OriginalAt)
	assert.True(t, repaired.OriginalAt.Equal(repaired.ScheduledAt),
		"original instant seeded by the false positive is reset")

	untouched, err := s.GetByID(context.Background(), "evt_genuine")
	require.NoError(t, err)
	require.NotNil(t, untouched.RescheduledFrom, "a mid-week reschedule is genuine and keeps its marker")
}

func TestRepairDryRun(t *testing.T) {
	s := memory.New()
	from := utc.Time{Time: now.Add(-6 * 24 * time.Hour)}
	seed(t, s, &events.CanonicalEvent{
		ID:              "evt_weekly",
		Name:            "Initial Jobless Claims",
		NormalizedName:  "initial jobless claims",
		Currency:        "USD",
		ScheduledAt:     utc.Time{Time: now.Add(24 * time.Hour)},
		RescheduledFrom: &from,
		Status:          events.StatusScheduled,
	})
	d := newDetector(t, s)

	res, err := d.RepairWeeklyReschedules(context.Background(), RunOptions{Now: now, DryRun: true})
	require.NoError(t, err)
	require.Len(t, res.Repaired, 1)

	got, err := s.GetByID(context.Background(), "evt_weekly")
	require.NoError(t, err)
	assert.NotNil(t, got.RescheduledFrom, "dry run must not write")
}

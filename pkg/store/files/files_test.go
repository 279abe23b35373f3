package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econcal/econcal/pkg/errors"
	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/store"
)

func ts(s string) utc.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return utc.Time{Time: t}
}

func strPtr(s string) *string { return &s }

func event(id, currency, at string) *events.CanonicalEvent {
	return &events.CanonicalEvent{
		ID:             id,
		Name:           "Unemployment Rate",
		NormalizedName: "unemployment rate",
		Currency:       currency,
		ScheduledAt:    ts(at),
		Status:         events.StatusScheduled,
	}
}

func TestNew(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "events")
		_, err := New(dir)
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty directory rejected", func(t *testing.T) {
		_, err := New("")
		assert.Error(t, err)
	})
}

func TestUpsertRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ev := event("evt_1", "USD", "2026-02-06T13:30:00Z")
	ev.Forecast = strPtr("4.1%")
	require.NoError(t, s.BatchUpsert(ctx, []store.Entry{{ID: ev.ID, Record: ev}}, 0))

	got, err := s.GetByID(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, "Unemployment Rate", got.Name)
	assert.Equal(t, "USD", got.Currency)
	require.NotNil(t, got.Forecast)
	assert.Equal(t, "4.1%", *got.Forecast)
	assert.True(t, got.ScheduledAt.Equal(ts("2026-02-06T13:30:00Z")))
}

func TestGetByIDNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.GetByID(context.Background(), "evt_missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestShallowMergeAndClear(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	from := ts("2026-01-30T13:30:00Z")
	first := event("evt_1", "USD", "2026-02-06T13:30:00Z")
	first.Forecast = strPtr("4.1%")
	first.RescheduledFrom = &from
	require.NoError(t, s.BatchUpsert(ctx, []store.Entry{{ID: first.ID, Record: first}}, 0))

	second := event("evt_1", "USD", "2026-02-06T13:30:00Z")
	second.Actual = strPtr("4.0%")
	second.Status = events.StatusReleased
	require.NoError(t, s.BatchUpsert(ctx, []store.Entry{
		{ID: second.ID, Record: second, Clear: []string{"rescheduled_from"}},
	}, 0))

	got, err := s.GetByID(ctx, "evt_1")
	require.NoError(t, err)
	require.NotNil(t, got.Forecast, "field absent from the second payload survives")
	assert.Equal(t, "4.1%", *got.Forecast)
	require.NotNil(t, got.Actual)
	assert.Equal(t, "4.0%", *got.Actual)
	assert.Nil(t, got.RescheduledFrom, "cleared field is gone")
}

func TestQueries(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	entries := []store.Entry{
		{ID: "evt_a", Record: event("evt_a", "USD", "2026-02-06T13:30:00Z")},
		{ID: "evt_b", Record: event("evt_b", "EUR", "2026-02-06T10:00:00Z")},
		{ID: "evt_c", Record: event("evt_c", "USD", "2026-03-06T13:30:00Z")},
	}
	require.NoError(t, s.BatchUpsert(ctx, entries, 0))

	byCurrency, err := s.QueryByCurrencyAndTimeRange(ctx, "USD",
		ts("2026-02-01T00:00:00Z").Time, ts("2026-02-28T00:00:00Z").Time)
	require.NoError(t, err)
	require.Len(t, byCurrency, 1)
	assert.Equal(t, "evt_a", byCurrency[0].ID)

	byTime, err := s.QueryByTimeRange(ctx,
		ts("2026-02-01T00:00:00Z").Time, ts("2026-02-28T00:00:00Z").Time)
	require.NoError(t, err)
	assert.Len(t, byTime, 2)
}

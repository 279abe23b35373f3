package store

import (
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/providers"
)

func ts(s string) utc.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return utc.Time{Time: t}
}

func strPtr(s string) *string { return &s }

// utcCmp compares utc.Time by instant so go-cmp never reaches into the
// unexported time.Time internals.
var utcCmp = cmp.Comparer(func(a, b utc.Time) bool { return a.Time.Equal(b.Time) })

func TestEncodeDocumentStripsAbsentFields(t *testing.T) {
	ev := &events.CanonicalEvent{
		ID:             "evt_1",
		Name:           "Trade Balance",
		NormalizedName: "trade balance",
		Currency:       "USD",
		ScheduledAt:    ts("2026-02-13T13:30:00Z"),
		Status:         events.StatusScheduled,
		Forecast:       strPtr("-68.1B"),
	}

	doc, err := EncodeDocument(ev)
	require.NoError(t, err)

	assert.Contains(t, doc, "forecast")
	assert.NotContains(t, doc, "actual", "nil fields must not appear as document keys")
	assert.NotContains(t, doc, "previous")
	assert.NotContains(t, doc, "rescheduled_from")
	assert.NotContains(t, doc, "winner_source")
}

func TestDocumentRoundTrip(t *testing.T) {
	ev := &events.CanonicalEvent{
		ID:             "evt_1",
		Name:           "Non-Farm Payrolls",
		NormalizedName: "non-farm payrolls",
		Currency:       "USD",
		ScheduledAt:    ts("2026-03-06T13:30:00Z"),
		Status:         events.StatusReleased,
		Actual:         strPtr("190K"),
		WinnerSource:   providers.MQL,
		Sources: events.Sources{
			providers.MQL: {
				OriginalName: "Nonfarm Payrolls",
				LastSeenAt:   ts("2026-03-06T13:35:00Z"),
				Parsed:       events.ParsedFields{Actual: strPtr("190K")},
			},
		},
	}

	doc, err := EncodeDocument(ev)
	require.NoError(t, err)
	back, err := DecodeDocument(doc)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(ev, back, utcCmp))
}

func TestMergeDocument(t *testing.T) {
	existing := Document{"id": "evt_1", "forecast": "185K", "status": "scheduled"}
	incoming := Document{"id": "evt_1", "actual": "190K", "status": "released"}

	merged := MergeDocument(existing, incoming)

	assert.Equal(t, "190K", merged["actual"])
	assert.Equal(t, "released", merged["status"])
	assert.Equal(t, "185K", merged["forecast"], "fields absent from the payload survive")
}

func TestMergeDocumentNilExisting(t *testing.T) {
	merged := MergeDocument(nil, Document{"id": "evt_1"})
	assert.Equal(t, "evt_1", merged["id"])
}

func TestChunk(t *testing.T) {
	entries := make([]Entry, 10)
	for i := range entries {
		entries[i].ID = string(rune('a' + i))
	}

	t.Run("splits at size", func(t *testing.T) {
		chunks := Chunk(entries, 4)
		require.Len(t, chunks, 3)
		assert.Len(t, chunks[0], 4)
		assert.Len(t, chunks[1], 4)
		assert.Len(t, chunks[2], 2)
	})

	t.Run("zero size uses default", func(t *testing.T) {
		chunks := Chunk(entries, 0)
		require.Len(t, chunks, 1)
		assert.Len(t, chunks[0], 10)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Chunk(nil, 4))
	})
}

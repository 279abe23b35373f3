package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/logging"
	"github.com/econcal/econcal/pkg/providers"
)

func TestLogSinkEmit(t *testing.T) {
	tl := logging.NewTestLogger(t)
	sink := NewLogSink(tl.Logger)
	defer sink.Close()

	old := time.Date(2026, 3, 4, 19, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 9, 19, 0, 0, 0, time.UTC)
	err := sink.Emit(context.Background(), Event{
		Kind:     EventRescheduled,
		EventID:  "evt_fomc",
		Provider: providers.NFS,
		Name:     "FOMC Meeting Minutes",
		OldTime:  &old,
		NewTime:  &now,
		At:       now,
	})
	require.NoError(t, err)

	assert.True(t, tl.Contains("event.rescheduled"))
	assert.True(t, tl.Contains("evt_fomc"))
	assert.True(t, tl.Contains("FOMC Meeting Minutes"))
}

func TestLogSinkOmitsEmptyFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	sink := NewLogSink(tl.Logger)

	require.NoError(t, sink.Emit(context.Background(), Event{
		Kind:      EventCancelled,
		EventID:   "evt_1",
		OldStatus: events.StatusScheduled,
		NewStatus: events.StatusCancelled,
		At:        time.Now().UTC(),
	}))

	assert.False(t, tl.Contains("old_time"))
	assert.False(t, tl.Contains("provider"))
	assert.True(t, tl.Contains("cancelled"))
}

func TestNopSink(t *testing.T) {
	var sink Sink = NopSink{}
	assert.NoError(t, sink.Emit(context.Background(), Event{Kind: EventCreated}))
	assert.NoError(t, sink.Close())
}

func TestNewKafkaSinkValidation(t *testing.T) {
	_, err := NewKafkaSink(KafkaConfig{Topic: "econcal.audit"})
	assert.Error(t, err, "brokers are required")

	_, err = NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err, "topic is required")

	sink, err := NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "econcal.audit"})
	require.NoError(t, err)
	require.NoError(t, sink.Close())
}

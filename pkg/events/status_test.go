package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusRankOrdering(t *testing.T) {
	assert.Less(t, StatusScheduled.Rank(), StatusReleased.Rank())
	assert.Less(t, StatusReleased.Rank(), StatusRevised.Rank())
	assert.Less(t, StatusRevised.Rank(), StatusCancelled.Rank())
}

func TestStatusRankUnknown(t *testing.T) {
	assert.Equal(t, StatusScheduled.Rank(), Status("").Rank())
	assert.Equal(t, StatusScheduled.Rank(), Status("bogus").Rank())
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusReleased, StatusRevised, StatusCancelled} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("pending").Valid())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusScheduled.Terminal())
	assert.True(t, StatusReleased.Terminal())
	assert.True(t, StatusRevised.Terminal())
	assert.False(t, StatusCancelled.Terminal(), "cancelled events can be reinstated, they are not terminal")
}

func TestMax(t *testing.T) {
	assert.Equal(t, StatusReleased, Max(StatusScheduled, StatusReleased))
	assert.Equal(t, StatusReleased, Max(StatusReleased, StatusScheduled))
	assert.Equal(t, StatusCancelled, Max(StatusRevised, StatusCancelled))
	assert.Equal(t, StatusRevised, Max(StatusRevised, StatusRevised))
}

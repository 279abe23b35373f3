package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("canonical event", "evt_123")
	assert.Equal(t, "canonical event with ID evt_123 not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("mql", "name", "missing name")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "mql")
	assert.Contains(t, err.Error(), "name")

	bare := &ValidationError{Field: "scheduled_at", Message: "missing timestamp"}
	assert.Contains(t, bare.Error(), "scheduled_at")
}

func TestCurrencyConflictError(t *testing.T) {
	err := &CurrencyConflictError{EventID: "evt_1", Existing: "USD", Incoming: "EUR", Provider: "fxstreet"}
	assert.ErrorIs(t, err, ErrCurrencyConflict)
	assert.Contains(t, err.Error(), "USD")
	assert.Contains(t, err.Error(), "EUR")
}

func TestStoreError(t *testing.T) {
	cause := New("connection refused")
	err := NewStoreError("upsert", 3, cause)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause, "the underlying cause stays reachable through the chain")
	assert.Contains(t, err.Error(), "chunk 3")
}

func TestConfigErrorUnwrap(t *testing.T) {
	cause := New("duplicate entry")
	err := NewConfigError("providers", "invalid priority order", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "providers")

	wrapped := fmt.Errorf("startup: %w", err)
	var confErr *ConfigError
	require.ErrorAs(t, wrapped, &confErr)
	assert.Equal(t, "providers", confErr.Component)
}

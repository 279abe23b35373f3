// Package errors provides custom error types for the econcal system.
// These errors enable programmatic error checking during sync runs and
// keep per-record failures distinguishable from batch-level failures.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's chain matches target.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
var As = errors.As

// Common sentinel errors for the econcal system
var (
	// ErrNotFound indicates that a requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that a provider record was malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrCurrencyConflict indicates conflicting currencies between an
	// existing canonical event and an incoming provider record
	ErrCurrencyConflict = errors.New("currency conflict")

	// ErrStoreUnavailable indicates the document store could not be reached
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrReadOnly indicates an attempt to modify a read-only store
	ErrReadOnly = errors.New("read only")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a per-record validation failure.
// These are isolated within a sync batch and never abort it.
type ValidationError struct {
	Field    string
	Provider string
	Message  string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("invalid record from %s: field %s: %s", e.Provider, e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(provider, field, message string) *ValidationError {
	return &ValidationError{Provider: provider, Field: field, Message: message}
}

// CurrencyConflictError reports disagreeing currencies between an existing
// canonical event and an incoming record. Non-fatal: the existing value wins.
type CurrencyConflictError struct {
	EventID  string
	Existing string
	Incoming string
	Provider string
}

// Error implements the error interface
func (e *CurrencyConflictError) Error() string {
	return fmt.Sprintf("currency conflict on %s: existing %s, %s reported %s",
		e.EventID, e.Existing, e.Provider, e.Incoming)
}

// Is implements errors.Is support
func (e *CurrencyConflictError) Is(target error) bool {
	return target == ErrCurrencyConflict
}

// StoreError represents a batch-level document store failure.
// These propagate to the caller; the next scheduled sync retries the
// whole batch relying on merge idempotency.
type StoreError struct {
	Op    string
	Chunk int
	Err   error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Chunk > 0 {
		return fmt.Sprintf("store %s failed at chunk %d: %v", e.Op, e.Chunk, e.Err)
	}
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreError creates a new StoreError
func NewStoreError(op string, chunk int, err error) *StoreError {
	return &StoreError{Op: op, Chunk: chunk, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

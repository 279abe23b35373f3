// Package store defines the document store contract the reconciliation
// engine runs against, plus the codec that strips absent fields from write
// payloads. Implementations live in the memory, files, and postgres
// subpackages.
//
// BatchUpsert uses shallow-merge semantics: fields present in the payload
// overwrite the stored document field-by-field, absent fields are left
// untouched. Correctness under concurrent sync runs is delegated to the
// backing store's own conflict resolution; every sync is idempotent and
// re-confirms state on its next cycle.
package store

import (
	"context"
	"time"

	"github.com/econcal/econcal/pkg/events"
)

// DefaultChunkSize caps how many entries go into one batch write.
const DefaultChunkSize = 400

// Entry pairs a document ID with the canonical event to upsert. Clear lists
// top-level document fields to remove before the shallow merge; absent
// fields in the payload cannot overwrite stored values, so clearing a field
// (e.g. a false-positive rescheduled_from) must be explicit.
type Entry struct {
	ID     string
	Record *events.CanonicalEvent
	Clear  []string
}

// Querier is the candidate lookup capability the identity resolver needs.
type Querier interface {
	// QueryByCurrencyAndTimeRange returns canonical events with the given
	// currency whose scheduled instant falls within [start, end].
	QueryByCurrencyAndTimeRange(ctx context.Context, currency string, start, end time.Time) ([]*events.CanonicalEvent, error)
}

// Store is the full document store contract.
type Store interface {
	Querier

	// QueryByTimeRange returns canonical events of any currency scheduled
	// within [start, end]. Used by batch scans (stale detection, repair).
	QueryByTimeRange(ctx context.Context, start, end time.Time) ([]*events.CanonicalEvent, error)

	// GetByID returns the canonical event with the given ID, or a
	// NotFoundError if no such document exists.
	GetByID(ctx context.Context, id string) (*events.CanonicalEvent, error)

	// BatchUpsert writes entries in chunks of at most chunkSize, shallow-
	// merging each payload into any existing document with the same ID.
	// chunkSize <= 0 uses DefaultChunkSize.
	BatchUpsert(ctx context.Context, entries []Entry, chunkSize int) error

	// NewID returns an opaque identifier for records that have no
	// deterministic hash.
	NewID() string
}

// Chunk splits entries into slices of at most size elements.
func Chunk(entries []Entry, size int) [][]Entry {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]Entry
	for len(entries) > size {
		chunks = append(chunks, entries[:size])
		entries = entries[size:]
	}
	if len(entries) > 0 {
		chunks = append(chunks, entries)
	}
	return chunks
}

// Package memory provides an in-memory document store, used by tests and as
// the reference implementation of the store contract's shallow-merge
// semantics.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/econcal/econcal/pkg/errors"
	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/store"
)

// Store is a thread-safe in-memory document store.
type Store struct {
	mu   sync.RWMutex
	docs map[string]store.Document
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{docs: make(map[string]store.Document)}
}

// QueryByCurrencyAndTimeRange implements store.Querier.
func (s *Store) QueryByCurrencyAndTimeRange(ctx context.Context, currency string, start, end time.Time) ([]*events.CanonicalEvent, error) {
	return s.query(ctx, func(ev *events.CanonicalEvent) bool {
		return ev.Currency == currency && inRange(ev.ScheduledAt.Time, start, end)
	})
}

// QueryByTimeRange implements store.Store.
func (s *Store) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]*events.CanonicalEvent, error) {
	return s.query(ctx, func(ev *events.CanonicalEvent) bool {
		return inRange(ev.ScheduledAt.Time, start, end)
	})
}

func (s *Store) query(ctx context.Context, keep func(*events.CanonicalEvent) bool) ([]*events.CanonicalEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*events.CanonicalEvent
	for _, doc := range s.docs {
		ev, err := store.DecodeDocument(doc)
		if err != nil {
			return nil, err
		}
		if keep(ev) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// GetByID implements store.Store.
func (s *Store) GetByID(ctx context.Context, id string) (*events.CanonicalEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, errors.NewNotFoundError("canonical event", id)
	}
	return store.DecodeDocument(doc)
}

// BatchUpsert implements store.Store with shallow-merge semantics.
func (s *Store) BatchUpsert(ctx context.Context, entries []store.Entry, chunkSize int) error {
	for _, chunk := range store.Chunk(entries, chunkSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.upsertChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertChunk(chunk []store.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range chunk {
		doc, err := store.EncodeDocument(entry.Record)
		if err != nil {
			return err
		}
		existing := s.docs[entry.ID]
		for _, field := range entry.Clear {
			delete(existing, field)
		}
		s.docs[entry.ID] = store.MergeDocument(existing, doc)
	}
	return nil
}

// NewID implements store.Store.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

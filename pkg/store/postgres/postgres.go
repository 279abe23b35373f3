// Package postgres provides a Postgres-backed document store. Canonical
// events live as jsonb documents keyed by event ID, with currency and
// scheduled instant denormalized into indexed columns for range queries.
//
// Shallow-merge upserts map directly onto jsonb concatenation:
// existing.doc || incoming.doc overwrites top-level fields only.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/econcal/econcal/pkg/errors"
	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/store"
)

// Schema is the DDL for the canonical event collection.
const Schema = `
CREATE TABLE IF NOT EXISTS canonical_events (
	id           TEXT PRIMARY KEY,
	currency     TEXT NOT NULL DEFAULT '',
	scheduled_at TIMESTAMPTZ NOT NULL,
	doc          JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS canonical_events_currency_scheduled_idx
	ON canonical_events (currency, scheduled_at);
CREATE INDEX IF NOT EXISTS canonical_events_scheduled_idx
	ON canonical_events (scheduled_at);
`

// Store persists canonical event documents in Postgres.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres with the given DSN and ensures the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewStoreError("ping", 0, err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, errors.NewStoreError("migrate", 0, err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing database handle without running migrations.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// QueryByCurrencyAndTimeRange implements store.Querier.
func (s *Store) QueryByCurrencyAndTimeRange(ctx context.Context, currency string, start, end time.Time) ([]*events.CanonicalEvent, error) {
	const q = `
		SELECT doc FROM canonical_events
		WHERE currency = $1 AND scheduled_at BETWEEN $2 AND $3
		ORDER BY scheduled_at`
	return s.queryDocs(ctx, q, currency, start, end)
}

// QueryByTimeRange implements store.Store.
func (s *Store) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]*events.CanonicalEvent, error) {
	const q = `
		SELECT doc FROM canonical_events
		WHERE scheduled_at BETWEEN $1 AND $2
		ORDER BY scheduled_at`
	return s.queryDocs(ctx, q, start, end)
}

func (s *Store) queryDocs(ctx context.Context, q string, args ...any) ([]*events.CanonicalEvent, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.NewStoreError("query", 0, err)
	}
	defer rows.Close()

	var out []*events.CanonicalEvent
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.NewStoreError("query", 0, err)
		}
		var doc store.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("postgres store: decode document: %w", err)
		}
		ev, err := store.DecodeDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// GetByID implements store.Store.
func (s *Store) GetByID(ctx context.Context, id string) (*events.CanonicalEvent, error) {
	const q = `SELECT doc FROM canonical_events WHERE id = $1`

	var raw []byte
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("canonical event", id)
		}
		return nil, errors.NewStoreError("get", 0, err)
	}

	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("postgres store: decode document %s: %w", id, err)
	}
	return store.DecodeDocument(doc)
}

// BatchUpsert implements store.Store. Each chunk commits in one transaction;
// a failed chunk aborts the batch and the caller's next sync cycle retries.
func (s *Store) BatchUpsert(ctx context.Context, entries []store.Entry, chunkSize int) error {
	for i, chunk := range store.Chunk(entries, chunkSize) {
		if err := s.upsertChunk(ctx, chunk); err != nil {
			return errors.NewStoreError("batch upsert", i+1, err)
		}
	}
	return nil
}

func (s *Store) upsertChunk(ctx context.Context, chunk []store.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO canonical_events (id, currency, scheduled_at, doc, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			currency     = EXCLUDED.currency,
			scheduled_at = EXCLUDED.scheduled_at,
			doc          = (canonical_events.doc - $5::text[]) || EXCLUDED.doc,
			updated_at   = now()`

	for _, entry := range chunk {
		doc, err := store.EncodeDocument(entry.Record)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		cleared := entry.Clear
		if cleared == nil {
			cleared = []string{}
		}
		if _, err := tx.ExecContext(ctx, q,
			entry.ID, entry.Record.Currency, entry.Record.ScheduledAt.Time, raw, pq.Array(cleared)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// NewID implements store.Store.
func (s *Store) NewID() string {
	return uuid.NewString()
}

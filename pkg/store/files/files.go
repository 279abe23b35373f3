// Package files provides a YAML-file-backed document store. Each canonical
// event is persisted as one YAML document under the store directory, named
// by event ID. Suited for local development and fixture-driven tests.
package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/econcal/econcal/pkg/errors"
	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/store"
)

const fileExt = ".yaml"

// Store persists canonical event documents as YAML files in a directory.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates a file store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// QueryByCurrencyAndTimeRange implements store.Querier.
func (s *Store) QueryByCurrencyAndTimeRange(ctx context.Context, currency string, start, end time.Time) ([]*events.CanonicalEvent, error) {
	return s.scan(ctx, func(ev *events.CanonicalEvent) bool {
		return ev.Currency == currency && inRange(ev.ScheduledAt.Time, start, end)
	})
}

// QueryByTimeRange implements store.Store.
func (s *Store) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]*events.CanonicalEvent, error) {
	return s.scan(ctx, func(ev *events.CanonicalEvent) bool {
		return inRange(ev.ScheduledAt.Time, start, end)
	})
}

func (s *Store) scan(ctx context.Context, keep func(*events.CanonicalEvent) bool) ([]*events.CanonicalEvent, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("file store: read %s: %w", s.dir, err)
	}

	var out []*events.CanonicalEvent
	for _, de := range dirents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if de.IsDir() || !strings.HasSuffix(de.Name(), fileExt) {
			continue
		}
		ev, err := s.read(filepath.Join(s.dir, de.Name()))
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

	path := s.path(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("canonical event", id)
	}
	return s.read(path)
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
		incoming, err := store.EncodeDocument(entry.Record)
		if err != nil {
			return err
		}

		var existing store.Document
		if raw, err := os.ReadFile(s.path(entry.ID)); err == nil {
			if err := yaml.Unmarshal(raw, &existing); err != nil {
				return fmt.Errorf("file store: decode %s: %w", entry.ID, err)
			}
		}

		for _, field := range entry.Clear {
			delete(existing, field)
		}
		merged := store.MergeDocument(existing, incoming)
		if err := s.write(entry.ID, merged); err != nil {
			return err
		}
	}
	return nil
}

// NewID implements store.Store.
func (s *Store) NewID() string {
	return uuid.NewString()
}

func (s *Store) read(path string) (*events.CanonicalEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("file store: read %s: %w", path, err)
	}
	var doc store.Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("file store: decode %s: %w", path, err)
	}
	return store.DecodeDocument(doc)
}

func (s *Store) write(id string, doc store.Document) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("file store: encode %s: %w", id, err)
	}

	// Write via a temp file so a crashed sync never leaves a torn document.
	path := s.path(id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("file store: write %s: %w", id, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("file store: write %s: %w", id, err)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

package syncer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/providers"
)

// FileFeed is a ProviderAdapter that reads normalized records from a YAML
// file. Network fetchers for the real feeds plug in behind the same
// interface; the file feed serves local runs and fixtures.
type FileFeed struct {
	provider providers.ID
	path     string
}

// NewFileFeed creates a FileFeed for the given provider and fixture path.
func NewFileFeed(provider providers.ID, path string) *FileFeed {
	return &FileFeed{provider: provider, path: path}
}

// Provider implements ProviderAdapter.
func (f *FileFeed) Provider() providers.ID {
	return f.provider
}

// Fetch implements ProviderAdapter. Records outside [from, to] are dropped;
// the provider field is stamped onto every record.
func (f *FileFeed) Fetch(ctx context.Context, from, to time.Time) ([]events.ProviderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("file feed %s: %w", f.path, err)
	}

	var records []events.ProviderRecord
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("file feed %s: decode: %w", f.path, err)
	}

	out := records[:0]
	for _, rec := range records {
		rec.Provider = f.provider
		at := rec.ScheduledAt.Time
		if at.Before(from) || at.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

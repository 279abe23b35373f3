// Package events defines the canonical economic-event data model shared by
// the reconciliation engine, the document store, and the sync orchestrators.
//
// A CanonicalEvent is the single reconciled record for one real-world
// scheduled release (an interest-rate decision, an employment report, an
// inflation print). Every provider that has ever reported the event keeps an
// entry in Sources, so the per-provider audit trail survives even after a
// provider stops being the winning value for a field.
package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/agentstation/utc"

	"github.com/econcal/econcal/pkg/providers"
)

// CanonicalEvent is the reconciled record, one per real-world occurrence.
type CanonicalEvent struct {
	ID             string       `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name"`
	NormalizedName string       `json:"normalized_name" yaml:"normalized_name"`
	Currency       string       `json:"currency,omitempty" yaml:"currency,omitempty"`
	Category       *string      `json:"category,omitempty" yaml:"category,omitempty"`
	Impact         *string      `json:"impact,omitempty" yaml:"impact,omitempty"`
	ScheduledAt    utc.Time     `json:"scheduled_at" yaml:"scheduled_at"`
	OriginalAt     *utc.Time    `json:"original_scheduled_at,omitempty" yaml:"original_scheduled_at,omitempty"`
	RescheduledFrom *utc.Time   `json:"rescheduled_from,omitempty" yaml:"rescheduled_from,omitempty"`
	Forecast       *string      `json:"forecast,omitempty" yaml:"forecast,omitempty"`
	Previous       *string      `json:"previous,omitempty" yaml:"previous,omitempty"`
	Actual         *string      `json:"actual,omitempty" yaml:"actual,omitempty"`
	Status         Status       `json:"status" yaml:"status"`
	Sources        Sources      `json:"sources,omitempty" yaml:"sources,omitempty"`
	WinnerSource   providers.ID `json:"winner_source,omitempty" yaml:"winner_source,omitempty"`
	LastSeenInFeed utc.Time     `json:"last_seen_in_feed" yaml:"last_seen_in_feed"`
	CreatedAt      utc.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt      utc.Time     `json:"updated_at" yaml:"updated_at"`
}

// Sources maps a provider to its contribution entry.
type Sources map[providers.ID]SourceEntry

// SourceEntry is one provider's contribution to a canonical event. Parsed
// fields are remembered per provider independently of the canonical winner.
type SourceEntry struct {
	OriginalName string       `json:"original_name" yaml:"original_name"`
	LastSeenAt   utc.Time     `json:"last_seen_at" yaml:"last_seen_at"`
	RawPayload   string       `json:"raw_payload,omitempty" yaml:"raw_payload,omitempty"`
	Parsed       ParsedFields `json:"parsed" yaml:"parsed"`
}

// ParsedFields are the values a provider parsed out of its feed. Absent
// fields stay nil so the store boundary can strip them from write payloads.
type ParsedFields struct {
	Actual   *string `json:"actual,omitempty" yaml:"actual,omitempty"`
	Forecast *string `json:"forecast,omitempty" yaml:"forecast,omitempty"`
	Previous *string `json:"previous,omitempty" yaml:"previous,omitempty"`
	Outcome  *string `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Strength *string `json:"strength,omitempty" yaml:"strength,omitempty"`
	Quality  *string `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// ProviderRecord is one normalized sighting from a provider adapter.
// Timestamps are already UTC; the engine performs no timezone inference.
type ProviderRecord struct {
	Provider    providers.ID `json:"provider" yaml:"provider"`
	Name        string       `json:"name" yaml:"name"`
	Currency    string       `json:"currency,omitempty" yaml:"currency,omitempty"`
	ScheduledAt utc.Time     `json:"scheduled_at" yaml:"scheduled_at"`
	Status      Status       `json:"status,omitempty" yaml:"status,omitempty"`
	Forecast    *string      `json:"forecast,omitempty" yaml:"forecast,omitempty"`
	Previous    *string      `json:"previous,omitempty" yaml:"previous,omitempty"`
	Actual      *string      `json:"actual,omitempty" yaml:"actual,omitempty"`
	Outcome     *string      `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Strength    *string      `json:"strength,omitempty" yaml:"strength,omitempty"`
	Quality     *string      `json:"quality,omitempty" yaml:"quality,omitempty"`
	Category    *string      `json:"category,omitempty" yaml:"category,omitempty"`
	Impact      *string      `json:"impact,omitempty" yaml:"impact,omitempty"`
	RawPayload  string       `json:"raw_payload,omitempty" yaml:"raw_payload,omitempty"`
}

// Validate rejects records that cannot be merged. Callers skip invalid
// records and continue their batch.
func (r ProviderRecord) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("provider record from %s: missing name", r.Provider)
	}
	if r.ScheduledAt.IsZero() {
		return fmt.Errorf("provider record %q from %s: missing timestamp", r.Name, r.Provider)
	}
	return nil
}

// DeterministicID derives a stable event ID from currency, normalized name,
// and scheduled instant. Records without a currency cannot be hashed; the
// caller falls back to a store-generated opaque ID.
func DeterministicID(currency, normalizedName string, at utc.Time) string {
	sum := sha256.Sum256([]byte(currency + "|" + normalizedName + "|" + at.UTC().Format(time.RFC3339)))
	return "evt_" + hex.EncodeToString(sum[:12])
}

// Clone returns a deep copy. The merge engine never mutates its input.
func (e *CanonicalEvent) Clone() *CanonicalEvent {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Category = cloneStr(e.Category)
	cp.Impact = cloneStr(e.Impact)
	cp.OriginalAt = cloneTime(e.OriginalAt)
	cp.RescheduledFrom = cloneTime(e.RescheduledFrom)
	cp.Forecast = cloneStr(e.Forecast)
	cp.Previous = cloneStr(e.Previous)
	cp.Actual = cloneStr(e.Actual)
	if e.Sources != nil {
		cp.Sources = make(Sources, len(e.Sources))
		for id, entry := range e.Sources {
			cp.Sources[id] = entry.clone()
		}
	}
	return &cp
}

func (s SourceEntry) clone() SourceEntry {
	cp := s
	cp.Parsed = ParsedFields{
		Actual:   cloneStr(s.Parsed.Actual),
		Forecast: cloneStr(s.Parsed.Forecast),
		Previous: cloneStr(s.Parsed.Previous),
		Outcome:  cloneStr(s.Parsed.Outcome),
		Strength: cloneStr(s.Parsed.Strength),
		Quality:  cloneStr(s.Parsed.Quality),
	}
	return cp
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *utc.Time) *utc.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

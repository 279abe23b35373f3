// Package providers defines provider identifiers and the fixed priority
// order used for field selection during reconciliation.
//
// Priority is an explicit ordered list plus a reverse index, validated when
// the registry is built. A provider that is not listed ranks below every
// listed provider instead of failing the merge.
package providers

import (
	"fmt"
	"sort"
)

// ID identifies one external data source contributing event sightings.
type ID string

// Built-in provider IDs. NFS is the authoritative weekly schedule feed;
// the remaining providers report actuals against the NFS-seeded schedule.
const (
	// NFS is the primary schedule provider and staleness authority.
	NFS ID = "nfs"
	// MQL is the primary actuals provider.
	MQL ID = "mql"
	// Generated is the synthetic fallback feed; its values only win when
	// no real provider holds the field.
	Generated ID = "generated"
	// FXStreet is a secondary actuals provider.
	FXStreet ID = "fxstreet"
	// Investing is a secondary actuals provider.
	Investing ID = "investing"
)

// DefaultOrder is the default field-selection priority, highest first.
func DefaultOrder() []ID {
	return []ID{NFS, MQL, Generated, FXStreet, Investing}
}

// Registry holds the priority order and its reverse index.
type Registry struct {
	order []ID
	rank  map[ID]int
}

// NewRegistry builds a Registry from an ordered priority list, highest
// priority first. The list must be non-empty and free of duplicates.
func NewRegistry(order []ID) (*Registry, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("provider priority order is empty")
	}
	rank := make(map[ID]int, len(order))
	for i, id := range order {
		if id == "" {
			return nil, fmt.Errorf("provider priority order contains an empty ID at position %d", i)
		}
		if _, dup := rank[id]; dup {
			return nil, fmt.Errorf("provider %q listed twice in priority order", id)
		}
		rank[id] = i
	}
	return &Registry{order: order, rank: rank}, nil
}

// Default returns a Registry with the default priority order.
func Default() *Registry {
	r, err := NewRegistry(DefaultOrder())
	if err != nil {
		panic(err) // static order, cannot fail
	}
	return r
}

// Order returns a copy of the priority order, highest first.
func (r *Registry) Order() []ID {
	out := make([]ID, len(r.order))
	copy(out, r.order)
	return out
}

// Rank returns the priority rank of id (lower is higher priority).
// Unlisted providers rank after every listed one.
func (r *Registry) Rank(id ID) int {
	if i, ok := r.rank[id]; ok {
		return i
	}
	return len(r.order)
}

// Known reports whether id has an explicit priority entry.
func (r *Registry) Known(id ID) bool {
	_, ok := r.rank[id]
	return ok
}

// Validate checks that every referenced provider has a priority entry.
// Used at startup so misconfigured priority tables fail fast.
func (r *Registry) Validate(referenced ...ID) error {
	var missing []string
	for _, id := range referenced {
		if !r.Known(id) {
			missing = append(missing, string(id))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("providers referenced without a priority entry: %v", missing)
	}
	return nil
}

// ScanOrder returns the priority order extended with the given unlisted
// providers appended in lexical order. The merge engine scans this sequence
// when selecting field winners, so unlisted providers still contribute,
// just last.
func (r *Registry) ScanOrder(present []ID) []ID {
	out := r.Order()
	var extra []ID
	for _, id := range present {
		if !r.Known(id) {
			extra = append(extra, id)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

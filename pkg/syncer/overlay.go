package syncer

import (
	"context"
	"time"

	"github.com/econcal/econcal/pkg/events"
	"github.com/econcal/econcal/pkg/store"
)

// overlay layers the current run's pending merges over the backing store so
// identity resolution sees records merged earlier in the same batch before
// they are flushed. Pending versions shadow stored versions by ID.
type overlay struct {
	base    store.Querier
	byID    map[string]*events.CanonicalEvent
	ordered []string
}

func newOverlay(base store.Querier) *overlay {
	return &overlay{base: base, byID: make(map[string]*events.CanonicalEvent)}
}

// put stages a merged record, keeping first-staged order for the flush.
func (o *overlay) put(ev *events.CanonicalEvent) {
	if _, seen := o.byID[ev.ID]; !seen {
		o.ordered = append(o.ordered, ev.ID)
	}
	o.byID[ev.ID] = ev
}

// entries returns the staged records in the order they were first staged.
func (o *overlay) entries() []store.Entry {
	out := make([]store.Entry, 0, len(o.ordered))
	for _, id := range o.ordered {
		out = append(out, store.Entry{ID: id, Record: o.byID[id]})
	}
	return out
}

// QueryByCurrencyAndTimeRange implements store.Querier over store + pending.
func (o *overlay) QueryByCurrencyAndTimeRange(ctx context.Context, currency string, start, end time.Time) ([]*events.CanonicalEvent, error) {
	stored, err := o.base.QueryByCurrencyAndTimeRange(ctx, currency, start, end)
	if err != nil {
		return nil, err
	}

	var out []*events.CanonicalEvent
	for _, ev := range stored {
		if pending, ok := o.byID[ev.ID]; ok {
			// The pending version may have moved out of the window.
			if matches(pending, currency, start, end) {
				out = append(out, pending)
			}
			continue
		}
		out = append(out, ev)
	}
	for _, id := range o.ordered {
		pending := o.byID[id]
		if containsID(stored, id) {
			continue
		}
		if matches(pending, currency, start, end) {
			out = append(out, pending)
		}
	}
	return out, nil
}

func matches(ev *events.CanonicalEvent, currency string, start, end time.Time) bool {
	if ev.Currency != currency {
		return false
	}
	t := ev.ScheduledAt.Time
	return !t.Before(start) && !t.After(end)
}

func containsID(evs []*events.CanonicalEvent, id string) bool {
	for _, ev := range evs {
		if ev.ID == id {
			return true
		}
	}
	return false
}

package events

// Status is the lifecycle state of a canonical event. It only moves forward
// under the fixed ordering scheduled < released < revised < cancelled; the
// single sanctioned regression is cancelled back to scheduled when a provider
// reports a cancelled event as scheduled again (reinstatement).
type Status string

const (
	// StatusScheduled means the event is expected to occur.
	StatusScheduled Status = "scheduled"
	// StatusReleased means the actual value has been published.
	StatusReleased Status = "released"
	// StatusRevised means a published value was later revised.
	StatusRevised Status = "revised"
	// StatusCancelled means the event was withdrawn from the calendar.
	StatusCancelled Status = "cancelled"
)

// statusRank orders statuses for monotonic progression.
var statusRank = map[Status]int{
	StatusScheduled: 0,
	StatusReleased:  1,
	StatusRevised:   2,
	StatusCancelled: 3,
}

// Rank returns the position of s in the progression order. Unknown or empty
// statuses rank as scheduled.
func (s Status) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return 0
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether the event already occurred. Terminal events are
// never merge targets for a reschedule; an incoming sighting at a different
// time becomes a new occurrence instead of overwriting history.
func (s Status) Terminal() bool {
	return s == StatusReleased || s == StatusRevised
}

// Max returns the further-advanced of two statuses.
func Max(a, b Status) Status {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

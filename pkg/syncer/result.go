package syncer

import (
	"time"

	"github.com/econcal/econcal/pkg/providers"
)

// Result aggregates what one sync run did. Per-record errors are collected
// here rather than aborting the batch; a non-empty Errors slice with zero
// store failures still counts as a completed run.
type Result struct {
	Provider providers.ID

	Processed   int
	Created     int
	Merged      int
	Skipped     int
	Rescheduled int
	Reinstated  int
	Cancelled   int

	Errors []error

	Started  time.Time
	Finished time.Time
}

// Duration returns the wall-clock duration of the run.
func (r *Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Success reports whether the run completed without per-record errors.
func (r *Result) Success() bool {
	return len(r.Errors) == 0
}

package delivery

import "time"

// TypeBug is the issue type tracked by the bug resolution metric.
const TypeBug = "Bug"

// Issue is one issue-tracker ticket with its workflow timestamps.
// InProgressAt and DoneAt come from the ticket's changelog and record
// the latest transition into the respective status set; either is the
// zero time when the ticket never reached that status.
type Issue struct {
	Key          string
	Summary      string
	Type         string
	Created      time.Time
	InProgressAt time.Time
	DoneAt       time.Time
}

// Completed reports whether the issue carries both workflow timestamps.
func (i Issue) Completed() bool {
	return !i.InProgressAt.IsZero() && !i.DoneAt.IsZero()
}

// Started reports whether work began without finishing yet.
func (i Issue) Started() bool {
	return !i.InProgressAt.IsZero() && i.DoneAt.IsZero()
}

// CycleHours returns the hours from In Progress to Done, or 0 for an
// incomplete issue. Negative spans (out-of-order changelog data) are
// returned as-is; the caller decides whether to keep them.
func (i Issue) CycleHours() float64 {
	if !i.Completed() {
		return 0
	}
	return i.DoneAt.Sub(i.InProgressAt).Hours()
}

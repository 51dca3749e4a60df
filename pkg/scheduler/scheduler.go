// Package scheduler computes mutually-free meeting slots from the
// union of two parties' busy intervals. It is pure: no clocks, no
// collaborators, no date guessing. Callers resolve the reference day
// and work-hour window before invoking it.
package scheduler

import (
	"fmt"
	"time"
)

// FreeSlots returns every candidate slot of the given duration inside
// the window that overlaps none of the busy intervals. Candidates are
// generated by advancing a cursor from the window start in fixed
// Granularity strides; generation stops once cursor+duration would
// pass the window end. The result is eager, chronologically ordered
// and identical across calls with identical inputs.
func FreeSlots(window Window, duration time.Duration, busy []BusyInterval) ([]Slot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %s", duration)
	}
	if !window.End.After(window.Start) {
		return nil, fmt.Errorf("window end %s is not after start %s", window.End, window.Start)
	}

	slots := []Slot{}
	for cursor := window.Start; !cursor.Add(duration).After(window.End); cursor = cursor.Add(Granularity) {
		end := cursor.Add(duration)
		if isFree(cursor, end, busy) {
			slots = append(slots, Slot{Start: cursor, End: end})
		}
	}

	return slots, nil
}

// isFree reports whether [start, end) intersects no busy interval.
// Half-open semantics: a slot ending exactly when an interval starts,
// or starting exactly when one ends, does not conflict.
func isFree(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if end.After(b.Start) && start.Before(b.End) {
			return false
		}
	}
	return true
}

package scheduler

import "time"

// BusyInterval is a half-open [Start, End) range during which a party
// is unavailable. Intervals from both parties are treated as one
// unordered union.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Slot is a candidate meeting window of fixed duration that overlaps
// no busy interval. Half-open [Start, End).
type Slot struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// Window bounds the candidate search, typically the work hours of a
// single day.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the total length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

const (
	// DefaultWorkStartHour is the start of the default work-hour window.
	DefaultWorkStartHour = 9

	// DefaultWorkEndHour is the end of the default work-hour window.
	DefaultWorkEndHour = 17

	// DefaultSlotDuration is the meeting length used when the caller
	// does not specify one.
	DefaultSlotDuration = 30 * time.Minute

	// Granularity is the fixed stride between candidate slot starts.
	// It is independent of the slot duration.
	Granularity = 30 * time.Minute
)

// WorkWindow returns the default work-hour window for the given day.
// The day's year, month and date are kept; the clock is set to the
// default work hours in the day's location.
func WorkWindow(day time.Time) Window {
	y, m, d := day.Date()
	loc := day.Location()
	return Window{
		Start: time.Date(y, m, d, DefaultWorkStartHour, 0, 0, 0, loc),
		End:   time.Date(y, m, d, DefaultWorkEndHour, 0, 0, 0, loc),
	}
}

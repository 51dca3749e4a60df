package calendar

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// resolveDay picks the reference day for a free-slot query. An empty
// or unparsable date falls back to the day after now; the scheduler
// itself never guesses dates.
func resolveDay(date string, now time.Time, loc *time.Location) time.Time {
	if date != "" {
		if d, err := time.ParseInLocation(dateLayout, date, loc); err == nil {
			return d
		}
	}
	return now.In(loc).AddDate(0, 0, 1)
}

// parseStamp parses an RFC 3339 timestamp and normalizes it to UTC so
// that Z-suffixed and offset-suffixed inputs compare correctly in
// interval arithmetic.
func parseStamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// formatStamp serializes a timestamp as RFC 3339 UTC with a Z suffix.
func formatStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

package calendar

// TimeSlot is a free slot in wire form. Timestamps are RFC 3339 with a
// trailing Z.
type TimeSlot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SlotList is the result of a free-slot query for one day.
type SlotList struct {
	Date  string     `json:"date"`
	Slots []TimeSlot `json:"slots"`
}

// Availability reports whether a time range is free of events.
type Availability struct {
	Available         bool `json:"is_available"`
	ConflictingEvents int  `json:"conflicting_events"`
}

// BookingRequest describes the meeting to create. Attendees may be
// email addresses or directory contact ids; ids are resolved through
// the directory and silently dropped when unresolvable.
type BookingRequest struct {
	Title       string   `json:"title"`
	Attendees   []string `json:"attendees"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Description string   `json:"description,omitempty"`
}

// Booking is the created meeting.
type Booking struct {
	MeetingID string   `json:"meeting_id"`
	Title     string   `json:"title"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Attendees []string `json:"attendees"`
	Link      string   `json:"link"`
	MeetLink  string   `json:"meet_link,omitempty"`
}

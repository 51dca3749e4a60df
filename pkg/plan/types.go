package plan

import (
	"fmt"
	"time"
)

// API identifies the external capability group a step dispatches to.
type API string

const (
	APIContacts    API = "contacts"
	APICalendar    API = "calendar"
	APIPreferences API = "preferences"
)

// Step action names, one per documented collaborator operation.
const (
	ActionFindContact       = "find_contact"
	ActionGetContactDetails = "get_contact_details"
	ActionCheckAvailability = "check_availability"
	ActionGetFreeSlots      = "get_free_slots"
	ActionBookMeeting       = "book_meeting"
	ActionGetPreferences    = "get_meeting_preferences"
)

// PlaceholderOtherUser marks the other_user_id parameter of the free-slot
// step until the runner binds it from the contact step's output.
const PlaceholderOtherUser = "PLACEHOLDER"

// Step is one (api, action, params) unit of work. Steps execute in
// insertion order; later steps may depend on earlier outputs.
type Step struct {
	API    API            `json:"api"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Key returns the results-map key for the step.
func (s Step) Key() string {
	return fmt.Sprintf("%s_%s", s.API, s.Action)
}

// Plan is an ordered list of steps derived from one parsed intent.
type Plan struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Steps     []Step    `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

// Package responder maps accumulated step results to the user-facing
// status message. Pure; it inspects only the results mapping.
package responder

import (
	"github.com/harun/temu/pkg/calendar"
	"github.com/harun/temu/pkg/plan"
	"github.com/harun/temu/pkg/runner"
)

// Status classifies a response for the caller.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Response is the user-facing outcome of one prompt.
type Response struct {
	Message string `json:"message"`
	Status  Status `json:"status"`
}

const (
	msgClarify      = "I'm not sure what you want to do. Can you clarify?"
	msgNoContact    = "Failed to find contact."
	msgNoSlotLookup = "Failed to find available slots. Please specify a date."
	msgNoFreeSlots  = "There are no available time slots. Would you like to try a different day?"
	msgSlotsFound   = "Meeting slots found and processed."
)

// Clarification is the short-circuit response for prompts the intent
// parser could not map to a booking request.
func Clarification() Response {
	return Response{Message: msgClarify, Status: StatusError}
}

// Synthesize derives the response from a run's results. The decision
// ladder follows the contact step first, then the slot lookup, then
// the slot count; a step absent from the results (because the run
// suspended before it) counts as not succeeded.
func Synthesize(results runner.Results) Response {
	contact, ok := results[string(plan.APIContacts)+"_"+plan.ActionFindContact]
	if !ok || !contact.Success {
		return Response{Message: msgNoContact, Status: StatusError}
	}

	slots, ok := results[string(plan.APICalendar)+"_"+plan.ActionGetFreeSlots]
	if !ok || !slots.Success {
		return Response{Message: msgNoSlotLookup, Status: StatusError}
	}

	if slotCount(slots.Payload["slots"]) == 0 {
		return Response{Message: msgNoFreeSlots, Status: StatusSuccess}
	}
	return Response{Message: msgSlotsFound, Status: StatusSuccess}
}

// slotCount tolerates the two shapes a slot list takes: typed results
// from the executor and generic JSON arrays from persisted runs.
func slotCount(v any) int {
	switch slots := v.(type) {
	case []calendar.TimeSlot:
		return len(slots)
	case []any:
		return len(slots)
	default:
		return 0
	}
}

// Package plan converts a parsed intent into the ordered step list the
// runner executes. Building is a pure transformation; nothing here
// touches the network or the clock beyond stamping creation time.
package plan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harun/temu/pkg/intent"
)

// Build produces the execution plan for a booking intent:
//
//  1. contacts.find_contact, when the intent names a counterpart;
//  2. preferences.get_meeting_preferences with ask_user=true, when the
//     intent requests it;
//  3. exactly one calendar.get_free_slots, always last. Its
//     other_user_id starts as a placeholder; the runner binds it from
//     the contact step's output just before execution.
//
// Callers must not invoke Build for non-booking intents.
func Build(it intent.Intent, userID string) (*Plan, error) {
	if it.Action != intent.ActionBookMeeting {
		return nil, fmt.Errorf("cannot build a plan for action %q", it.Action)
	}
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	var steps []Step

	if it.ContactName != "" {
		steps = append(steps, Step{
			API:    APIContacts,
			Action: ActionFindContact,
			Params: map[string]any{"name": it.ContactName},
		})
	}

	if it.AskPreferences {
		steps = append(steps, Step{
			API:    APIPreferences,
			Action: ActionGetPreferences,
			Params: map[string]any{"user_id": userID, "ask_user": true},
		})
	}

	slotParams := map[string]any{
		"user_id":       userID,
		"other_user_id": PlaceholderOtherUser,
	}
	if it.Date != "" {
		slotParams["date"] = it.Date
	}
	steps = append(steps, Step{
		API:    APICalendar,
		Action: ActionGetFreeSlots,
		Params: slotParams,
	})

	return &Plan{
		ID:        uuid.New().String(),
		UserID:    userID,
		Steps:     steps,
		CreatedAt: time.Now(),
	}, nil
}

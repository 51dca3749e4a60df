package responder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harun/temu/pkg/calendar"
	"github.com/harun/temu/pkg/executor"
	"github.com/harun/temu/pkg/runner"
)

func contactFound() executor.StepResult {
	return executor.StepResult{Success: true, Payload: map[string]any{
		"contact_id": "c123", "name": "John", "email": "john@example.com",
	}}
}

func TestSynthesizeNoContact(t *testing.T) {
	t.Run("step absent", func(t *testing.T) {
		resp := Synthesize(runner.Results{})
		assert.Equal(t, "Failed to find contact.", resp.Message)
		assert.Equal(t, StatusError, resp.Status)
	})

	t.Run("step failed", func(t *testing.T) {
		resp := Synthesize(runner.Results{
			"contacts_find_contact": {Success: false, Error: "no contact found"},
		})
		assert.Equal(t, "Failed to find contact.", resp.Message)
		assert.Equal(t, StatusError, resp.Status)
	})
}

func TestSynthesizeSlotLookupFailed(t *testing.T) {
	t.Run("step absent after suspension", func(t *testing.T) {
		resp := Synthesize(runner.Results{
			"contacts_find_contact": contactFound(),
		})
		assert.Equal(t, "Failed to find available slots. Please specify a date.", resp.Message)
		assert.Equal(t, StatusError, resp.Status)
	})

	t.Run("step failed", func(t *testing.T) {
		resp := Synthesize(runner.Results{
			"contacts_find_contact":   contactFound(),
			"calendar_get_free_slots": {Success: false, Error: "could not find contact email"},
		})
		assert.Equal(t, StatusError, resp.Status)
	})
}

func TestSynthesizeNoFreeSlots(t *testing.T) {
	resp := Synthesize(runner.Results{
		"contacts_find_contact": contactFound(),
		"calendar_get_free_slots": {Success: true, Payload: map[string]any{
			"date": "2025-06-12", "slots": []calendar.TimeSlot{},
		}},
	})

	assert.Equal(t, "There are no available time slots. Would you like to try a different day?", resp.Message)
	assert.Equal(t, StatusSuccess, resp.Status)
}

func TestSynthesizeSlotsFound(t *testing.T) {
	resp := Synthesize(runner.Results{
		"contacts_find_contact": contactFound(),
		"calendar_get_free_slots": {Success: true, Payload: map[string]any{
			"date": "2025-06-12",
			"slots": []calendar.TimeSlot{
				{StartTime: "2025-06-12T09:30:00Z", EndTime: "2025-06-12T10:00:00Z"},
			},
		}},
	})

	assert.Equal(t, "Meeting slots found and processed.", resp.Message)
	assert.Equal(t, StatusSuccess, resp.Status)
}

func TestSynthesizeGenericSlotShape(t *testing.T) {
	resp := Synthesize(runner.Results{
		"contacts_find_contact": contactFound(),
		"calendar_get_free_slots": {Success: true, Payload: map[string]any{
			"slots": []any{map[string]any{"start_time": "2025-06-12T09:30:00Z"}},
		}},
	})

	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "Meeting slots found and processed.", resp.Message)
}

func TestClarification(t *testing.T) {
	resp := Clarification()
	assert.Equal(t, "I'm not sure what you want to do. Can you clarify?", resp.Message)
	assert.Equal(t, StatusError, resp.Status)
}

// Package executor runs single plan steps against the external
// collaborators and normalizes every outcome into a StepResult. It
// contributes no scheduling logic of its own: parameter validation,
// dispatch and error normalization only. Collaborator failures are
// always converted to structured results, never propagated.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harun/temu/internal/metrics"
	"github.com/harun/temu/pkg/calendar"
	"github.com/harun/temu/pkg/directory"
	"github.com/harun/temu/pkg/plan"
	"github.com/harun/temu/pkg/preferences"
)

// Directory is the contact-lookup collaborator.
type Directory interface {
	FindContact(ctx context.Context, name string) (*directory.Contact, error)
	GetContactDetails(ctx context.Context, contactID string) (*directory.ContactDetails, error)
}

// Calendar is the availability/booking collaborator.
type Calendar interface {
	CheckAvailability(ctx context.Context, userID, startTime, endTime string) (*calendar.Availability, error)
	GetFreeSlots(ctx context.Context, userID, otherUserID, date string) (*calendar.SlotList, error)
	BookMeeting(ctx context.Context, req calendar.BookingRequest) (*calendar.Booking, error)
}

// Preferences is the meeting-preferences collaborator.
type Preferences interface {
	Get(ctx context.Context, userID string, askUser bool) (*preferences.Result, error)
}

// StepResult is the normalized outcome of one executed step.
type StepResult struct {
	Success bool           `json:"success"`
	Payload map[string]any `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Executor dispatches steps to the collaborators.
type Executor struct {
	directory   Directory
	calendar    Calendar
	preferences Preferences
	metrics     *metrics.Metrics
}

// New creates a step executor over the given collaborators.
func New(dir Directory, cal Calendar, prefs Preferences) *Executor {
	return &Executor{
		directory:   dir,
		calendar:    cal,
		preferences: prefs,
	}
}

// SetMetrics attaches a metrics registry. Optional; nil disables
// instrumentation.
func (e *Executor) SetMetrics(m *metrics.Metrics) {
	e.metrics = m
}

// Execute validates the step's parameters, dispatches by api and
// action, and normalizes the outcome. Unknown apis or actions and
// collaborator errors become failed results; nothing escapes as an
// error or panic.
func (e *Executor) Execute(ctx context.Context, api plan.API, action string, params map[string]any) (result StepResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("api", string(api)).Str("action", action).
				Interface("panic", r).Msg("Step execution panicked")
			result = failure(fmt.Sprintf("internal error executing %s.%s: %v", api, action, r))
		}
		e.metrics.ObserveStep(string(api), action, result.Success, time.Since(start))
	}()

	if err := validateParams(api, action, params); err != nil {
		return failure(fmt.Sprintf("parameter validation failed: %v", err))
	}

	switch api {
	case plan.APIContacts:
		result = e.executeContacts(ctx, action, params)
	case plan.APICalendar:
		result = e.executeCalendar(ctx, action, params)
	case plan.APIPreferences:
		result = e.executePreferences(ctx, action, params)
	default:
		result = failure(fmt.Sprintf("Unknown API: %s", api))
	}

	log.Debug().
		Str("api", string(api)).
		Str("action", action).
		Bool("success", result.Success).
		Dur("duration", time.Since(start)).
		Msg("Step executed")

	return result
}

func (e *Executor) executeContacts(ctx context.Context, action string, params map[string]any) StepResult {
	switch action {
	case plan.ActionFindContact:
		contact, err := e.directory.FindContact(ctx, stringParam(params, "name"))
		if err != nil {
			return failure(err.Error())
		}
		return success(map[string]any{
			"contact_id": contact.ID,
			"name":       contact.Name,
			"email":      contact.Email,
		})

	case plan.ActionGetContactDetails:
		details, err := e.directory.GetContactDetails(ctx, stringParam(params, "contact_id"))
		if err != nil {
			return failure(err.Error())
		}
		return success(map[string]any{
			"contact_id": details.ID,
			"name":       details.Name,
			"email":      details.Email,
			"phone":      details.Phone,
		})

	default:
		return failure(fmt.Sprintf("Unknown contacts action: %s", action))
	}
}

func (e *Executor) executeCalendar(ctx context.Context, action string, params map[string]any) StepResult {
	switch action {
	case plan.ActionCheckAvailability:
		avail, err := e.calendar.CheckAvailability(ctx,
			stringParam(params, "user_id"),
			stringParam(params, "start_time"),
			stringParam(params, "end_time"))
		if err != nil {
			return failure(err.Error())
		}
		return success(map[string]any{
			"is_available":       avail.Available,
			"conflicting_events": avail.ConflictingEvents,
		})

	case plan.ActionGetFreeSlots:
		slots, err := e.calendar.GetFreeSlots(ctx,
			stringParam(params, "user_id"),
			stringParam(params, "other_user_id"),
			stringParam(params, "date"))
		if err != nil {
			return failure(err.Error())
		}
		e.metrics.ObserveFreeSlots(len(slots.Slots))
		return success(map[string]any{
			"date":  slots.Date,
			"slots": slots.Slots,
		})

	case plan.ActionBookMeeting:
		booking, err := e.calendar.BookMeeting(ctx, calendar.BookingRequest{
			Title:       stringParam(params, "title"),
			Attendees:   stringSliceParam(params, "attendees"),
			StartTime:   stringParam(params, "start_time"),
			EndTime:     stringParam(params, "end_time"),
			Description: stringParam(params, "description"),
		})
		if err != nil {
			return failure(err.Error())
		}
		return success(map[string]any{
			"meeting_id": booking.MeetingID,
			"title":      booking.Title,
			"start_time": booking.StartTime,
			"end_time":   booking.EndTime,
			"attendees":  booking.Attendees,
			"link":       booking.Link,
		})

	default:
		return failure(fmt.Sprintf("Unknown calendar action: %s", action))
	}
}

func (e *Executor) executePreferences(ctx context.Context, action string, params map[string]any) StepResult {
	switch action {
	case plan.ActionGetPreferences:
		res, err := e.preferences.Get(ctx, stringParam(params, "user_id"), boolParam(params, "ask_user"))
		if err != nil {
			return failure(err.Error())
		}
		payload := map[string]any{
			"duration":        res.Duration,
			"preferred_times": res.PreferredTimes,
			"buffer":          res.Buffer,
		}
		if res.NeedsInput {
			payload["needs_input"] = true
		}
		return success(payload)

	default:
		return failure(fmt.Sprintf("Unknown preferences action: %s", action))
	}
}

func success(payload map[string]any) StepResult {
	return StepResult{Success: true, Payload: payload}
}

func failure(msg string) StepResult {
	return StepResult{Success: false, Error: msg}
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func boolParam(params map[string]any, key string) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return false
}

func stringSliceParam(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

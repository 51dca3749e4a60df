// Package calendar implements the calendar collaborator on the Google
// Calendar API: availability checks, mutually-free slot queries (a
// freebusy lookup for both parties fed through pkg/scheduler) and
// meeting creation.
package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harun/temu/pkg/directory"
	"github.com/harun/temu/pkg/scheduler"
)

// ContactResolver resolves a directory contact id to its details.
// Satisfied by *directory.Client.
type ContactResolver interface {
	GetContactDetails(ctx context.Context, contactID string) (*directory.ContactDetails, error)
}

// Options configure a Client. Zero values take the scheduler defaults.
type Options struct {
	WorkStartHour int
	WorkEndHour   int
	SlotDuration  time.Duration
	Location      *time.Location
	CalendarID    string
}

func (o Options) withDefaults() Options {
	if o.WorkStartHour == 0 && o.WorkEndHour == 0 {
		o.WorkStartHour = scheduler.DefaultWorkStartHour
		o.WorkEndHour = scheduler.DefaultWorkEndHour
	}
	if o.SlotDuration == 0 {
		o.SlotDuration = scheduler.DefaultSlotDuration
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.CalendarID == "" {
		o.CalendarID = "primary"
	}
	return o
}

// Client wraps the Calendar service together with the directory
// resolver it needs for email lookups.
type Client struct {
	svc      *gcal.Service
	resolver ContactResolver
	opts     Options

	// now is stubbed in tests to pin the "tomorrow" default.
	now func() time.Time
}

// NewClient creates a calendar client using the given authenticated
// HTTP client and contact resolver.
func NewClient(ctx context.Context, httpClient *http.Client, resolver ContactResolver, opts Options) (*Client, error) {
	if resolver == nil {
		return nil, fmt.Errorf("contact resolver cannot be nil")
	}
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{
		svc:      svc,
		resolver: resolver,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}, nil
}

// CheckAvailability reports whether the user's calendar is free of
// events between start and end.
func (c *Client) CheckAvailability(ctx context.Context, userID, startTime, endTime string) (*Availability, error) {
	start, err := parseStamp(startTime)
	if err != nil {
		return nil, fmt.Errorf("error checking availability: %w", err)
	}
	end, err := parseStamp(endTime)
	if err != nil {
		return nil, fmt.Errorf("error checking availability: %w", err)
	}

	events, err := c.svc.Events.List(userID).
		TimeMin(formatStamp(start)).
		TimeMax(formatStamp(end)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error checking availability: %w", err)
	}

	return &Availability{
		Available:         len(events.Items) == 0,
		ConflictingEvents: len(events.Items),
	}, nil
}

// GetFreeSlots computes the mutually-free slots of the user and the
// given contact for the target day's work-hour window. The date is
// optional; empty or unparsable dates resolve to tomorrow. The call
// fails when the contact cannot be resolved to an email address.
func (c *Client) GetFreeSlots(ctx context.Context, userID, otherUserID, date string) (*SlotList, error) {
	details, err := c.resolver.GetContactDetails(ctx, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("could not find contact email: %w", err)
	}
	if details.Email == "" {
		return nil, fmt.Errorf("contact %s does not have an email address", otherUserID)
	}

	day := resolveDay(date, c.now(), c.opts.Location)
	window := c.workWindow(day)

	busy, err := c.queryBusy(ctx, window, []string{userID, details.Email})
	if err != nil {
		return nil, err
	}

	slots, err := scheduler.FreeSlots(window, c.opts.SlotDuration, busy)
	if err != nil {
		return nil, fmt.Errorf("error getting free slots: %w", err)
	}

	out := &SlotList{
		Date:  day.Format(dateLayout),
		Slots: make([]TimeSlot, 0, len(slots)),
	}
	for _, s := range slots {
		out.Slots = append(out.Slots, TimeSlot{
			StartTime: formatStamp(s.Start),
			EndTime:   formatStamp(s.End),
		})
	}

	log.Debug().
		Str("date", out.Date).
		Int("busy", len(busy)).
		Int("slots", len(out.Slots)).
		Msg("Free slots computed")

	return out, nil
}

// queryBusy fetches the busy intervals of all given calendars over the
// window and returns their unordered union.
func (c *Client) queryBusy(ctx context.Context, window scheduler.Window, calendarIDs []string) ([]scheduler.BusyInterval, error) {
	items := make([]*gcal.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &gcal.FreeBusyRequestItem{Id: id}
	}

	resp, err := c.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: formatStamp(window.Start),
		TimeMax: formatStamp(window.End),
		Items:   items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("error getting free slots: freebusy query failed: %w", err)
	}

	var busy []scheduler.BusyInterval
	for _, cal := range resp.Calendars {
		for _, period := range cal.Busy {
			start, err := parseStamp(period.Start)
			if err != nil {
				return nil, fmt.Errorf("error getting free slots: %w", err)
			}
			end, err := parseStamp(period.End)
			if err != nil {
				return nil, fmt.Errorf("error getting free slots: %w", err)
			}
			busy = append(busy, scheduler.BusyInterval{Start: start, End: end})
		}
	}

	return busy, nil
}

// workWindow builds the configured work-hour window on the given day.
func (c *Client) workWindow(day time.Time) scheduler.Window {
	y, m, d := day.Date()
	return scheduler.Window{
		Start: time.Date(y, m, d, c.opts.WorkStartHour, 0, 0, 0, c.opts.Location),
		End:   time.Date(y, m, d, c.opts.WorkEndHour, 0, 0, 0, c.opts.Location),
	}
}

// BookMeeting creates the event on the user's primary calendar and
// invites every resolvable attendee. Attendee entries that are not
// already addresses are resolved through the directory; unresolvable
// ones are dropped from the invite list.
func (c *Client) BookMeeting(ctx context.Context, req BookingRequest) (*Booking, error) {
	start, err := parseStamp(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("error booking meeting: %w", err)
	}
	end, err := parseStamp(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("error booking meeting: %w", err)
	}

	emails := c.resolveAttendees(ctx, req.Attendees)
	attendees := make([]*gcal.EventAttendee, 0, len(emails))
	for _, email := range emails {
		attendees = append(attendees, &gcal.EventAttendee{Email: email})
	}

	event := &gcal.Event{
		Summary:     req.Title,
		Description: req.Description,
		Start: &gcal.EventDateTime{
			DateTime: formatStamp(start),
			TimeZone: "UTC",
		},
		End: &gcal.EventDateTime{
			DateTime: formatStamp(end),
			TimeZone: "UTC",
		},
		Attendees: attendees,
		Reminders: &gcal.EventReminders{UseDefault: true, ForceSendFields: []string{"UseDefault"}},
	}

	created, err := c.svc.Events.Insert(c.opts.CalendarID, event).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error booking meeting: %w", err)
	}

	return &Booking{
		MeetingID: created.Id,
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Attendees: emails,
		Link:      created.HtmlLink,
		MeetLink:  created.HangoutLink,
	}, nil
}

// resolveAttendees maps attendee entries to email addresses, dropping
// the ones the directory cannot resolve.
func (c *Client) resolveAttendees(ctx context.Context, attendees []string) []string {
	emails := make([]string, 0, len(attendees))
	for _, a := range attendees {
		if strings.Contains(a, "@") {
			emails = append(emails, a)
			continue
		}
		details, err := c.resolver.GetContactDetails(ctx, a)
		if err != nil || details.Email == "" {
			log.Warn().Str("attendee", a).Msg("Dropping unresolvable attendee")
			continue
		}
		emails = append(emails, details.Email)
	}
	return emails
}

// ABOUTME: Creates Google Meet links by inserting calendar events with conference data
// ABOUTME: Used when the server cannot create the link for lack of a refresh token
package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const defaultDuration = 30 * time.Minute

// EventRequest describes the calendar event backing a meeting.
type EventRequest struct {
	Title     string
	Start     time.Time
	Duration  time.Duration
	Timezone  string
	Attendees []string
	Notes     string
}

// Event is the created calendar event.
type Event struct {
	ID       string
	MeetLink string
	HTMLLink string
}

// MeetLinker inserts events into one calendar.
type MeetLinker struct {
	svc        *calendar.Service
	calendarID string
}

// NewMeetLinker creates a linker for the primary calendar. Pass
// option.WithTokenSource or option.WithHTTPClient for credentials.
func NewMeetLinker(ctx context.Context, opts ...option.ClientOption) (*MeetLinker, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &MeetLinker{svc: svc, calendarID: "primary"}, nil
}

// CreateEvent inserts the event and requests a Hangouts Meet conference.
func (l *MeetLinker) CreateEvent(ctx context.Context, req EventRequest) (*Event, error) {
	if req.Start.IsZero() {
		return nil, errors.New("meeting time is required")
	}
	dur := req.Duration
	if dur <= 0 {
		dur = defaultDuration
	}
	title := req.Title
	if title == "" {
		title = "Investor meeting"
	}

	ev := &calendar.Event{
		Summary:     title,
		Description: req.Notes,
		Start:       &calendar.EventDateTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: req.Timezone},
		End:         &calendar.EventDateTime{DateTime: req.Start.Add(dur).Format(time.RFC3339), TimeZone: req.Timezone},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}
	for _, email := range req.Attendees {
		if email = strings.TrimSpace(email); email != "" {
			ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
		}
	}

	created, err := l.svc.Events.Insert(l.calendarID, ev).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}

	out := &Event{ID: created.Id, HTMLLink: created.HtmlLink, MeetLink: created.HangoutLink}
	if out.MeetLink == "" && created.ConferenceData != nil {
		for _, ep := range created.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				out.MeetLink = ep.Uri
				break
			}
		}
	}
	if out.MeetLink == "" {
		return out, errors.New("calendar event created without a Meet link")
	}
	return out, nil
}

// SplitAttendees parses a comma or semicolon separated attendee list.
func SplitAttendees(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

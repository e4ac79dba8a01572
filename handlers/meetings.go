// ABOUTME: Meeting, followup and outcome MCP tool handlers
// ABOUTME: Implements schedule_meeting, mark_meeting_done, create_followup and record_outcome
package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confideleapcrm/irdesk/models"
	"github.com/confideleapcrm/irdesk/outreach"
)

type ScheduleMeetingInput struct {
	InvestorID      string `json:"investor_id" jsonschema:"Investor id (required)"`
	CompanyID       string `json:"company_id" jsonschema:"Company the meeting is for (required)"`
	CompanyName     string `json:"company_name,omitempty" jsonschema:"Company name stored on the row snapshot"`
	Datetime        string `json:"datetime" jsonschema:"Meeting time, YYYY-MM-DDTHH:MM local or RFC3339 (required)"`
	DurationMinutes int    `json:"duration_minutes,omitempty" jsonschema:"Length in minutes (default 30)"`
	Timezone        string `json:"timezone,omitempty" jsonschema:"IANA timezone name"`
	Title           string `json:"title,omitempty" jsonschema:"Meeting title"`
	Attendees       string `json:"attendees,omitempty" jsonschema:"Comma separated attendee emails"`
	Notes           string `json:"notes,omitempty" jsonschema:"Agenda or notes"`
	GenerateLink    bool   `json:"generate_link,omitempty" jsonschema:"Ask the server to create a Google Meet link"`
}

type ScheduleMeetingOutput struct {
	Meeting *MeetingOutput `json:"meeting,omitempty"`
	Row     *RowOutput     `json:"row,omitempty"`
	// Warning carries a non-fatal problem such as a missing Google connection.
	Warning string `json:"warning,omitempty"`
}

func (h *Handlers) ScheduleMeeting(ctx context.Context, _ *mcp.CallToolRequest, input ScheduleMeetingInput) (*mcp.CallToolResult, ScheduleMeetingOutput, error) {
	if input.InvestorID == "" || input.CompanyID == "" {
		return nil, ScheduleMeetingOutput{}, errors.New("investor_id and company_id are required")
	}
	at, err := parseTime("datetime", input.Datetime)
	if err != nil {
		return nil, ScheduleMeetingOutput{}, err
	}
	duration := input.DurationMinutes
	if duration <= 0 {
		duration = 30
	}

	res, err := h.mutator.ScheduleMeeting(ctx, outreach.ScheduleRequest{
		InvestorID:      models.ID(input.InvestorID),
		CompanyID:       models.ID(input.CompanyID),
		CompanyName:     input.CompanyName,
		Title:           input.Title,
		Datetime:        at,
		DurationMinutes: duration,
		Timezone:        input.Timezone,
		Attendees:       input.Attendees,
		Notes:           input.Notes,
		GenerateLink:    input.GenerateLink,
	})

	var out ScheduleMeetingOutput
	if res != nil {
		out.Meeting = meetingToOutput(res.Meeting)
		if res.Row != nil {
			row := rowToOutput(res.Row)
			if res.MeetLink != "" {
				row.MeetLink = res.MeetLink
			}
			out.Row = &row
		}
	}
	if err != nil {
		if res != nil && res.Meeting != nil {
			// The meeting exists; report the later failure without losing it.
			out.Warning = err.Error()
			return nil, out, nil
		}
		return nil, ScheduleMeetingOutput{}, err
	}
	return nil, out, nil
}

type MeetingStatusInput struct {
	InvestorID string `json:"investor_id" jsonschema:"Investor id (required)"`
	CompanyID  string `json:"company_id" jsonschema:"Company id (required)"`
	Status     string `json:"status,omitempty" jsonschema:"New status (default completed): scheduled, completed, cancelled, rescheduled, no_show"`
}

func (h *Handlers) MarkMeetingDone(ctx context.Context, _ *mcp.CallToolRequest, input MeetingStatusInput) (*mcp.CallToolResult, MeetingOutput, error) {
	if input.InvestorID == "" || input.CompanyID == "" {
		return nil, MeetingOutput{}, errors.New("investor_id and company_id are required")
	}
	status := input.Status
	if status == "" {
		status = models.MeetingCompleted
	}
	m, err := h.mutator.SetMeetingStatus(ctx, models.ID(input.InvestorID), models.ID(input.CompanyID), status)
	if err != nil {
		return nil, MeetingOutput{}, err
	}
	return nil, *meetingToOutput(m), nil
}

type CreateFollowupInput struct {
	InvestorID  string `json:"investor_id" jsonschema:"Investor id (required)"`
	CompanyID   string `json:"company_id,omitempty" jsonschema:"Company id"`
	CompanyName string `json:"company_name,omitempty" jsonschema:"Company name stored on the row snapshot"`
	Date        string `json:"date" jsonschema:"Followup date, YYYY-MM-DD (required)"`
	Notes       string `json:"notes,omitempty" jsonschema:"What to follow up on"`
}

type CreateFollowupOutput struct {
	FollowupID string     `json:"followup_id"`
	Date       string     `json:"date"`
	Row        *RowOutput `json:"row,omitempty"`
}

func (h *Handlers) CreateFollowup(ctx context.Context, _ *mcp.CallToolRequest, input CreateFollowupInput) (*mcp.CallToolResult, CreateFollowupOutput, error) {
	if input.InvestorID == "" {
		return nil, CreateFollowupOutput{}, errors.New("investor_id is required")
	}
	date, err := parseTime("date", input.Date)
	if err != nil {
		return nil, CreateFollowupOutput{}, err
	}
	res, err := h.mutator.CreateFollowup(ctx, outreach.FollowupRequest{
		InvestorID:  models.ID(input.InvestorID),
		CompanyID:   models.ID(input.CompanyID),
		CompanyName: input.CompanyName,
		Date:        date,
		Notes:       input.Notes,
	})
	if err != nil {
		return nil, CreateFollowupOutput{}, err
	}
	out := CreateFollowupOutput{FollowupID: res.Followup.ID.String(), Date: formatTime(res.Followup.FollowupDate)}
	if res.Row != nil {
		row := rowToOutput(res.Row)
		out.Row = &row
	}
	return nil, out, nil
}

type RecordOutcomeInput struct {
	InvestorID   string `json:"investor_id" jsonschema:"Investor id (required)"`
	CompanyID    string `json:"company_id,omitempty" jsonschema:"Company id"`
	CompanyName  string `json:"company_name,omitempty" jsonschema:"Company name stored on the row snapshot"`
	MeetingID    string `json:"meeting_id,omitempty" jsonschema:"Meeting this outcome closes; it is marked completed"`
	Outcome      string `json:"outcome" jsonschema:"interested, not_interested or follow_up (required)"`
	Notes        string `json:"notes,omitempty" jsonschema:"Conversation notes"`
	FollowupDate string `json:"followup_date,omitempty" jsonschema:"For follow_up: when to follow up, YYYY-MM-DD"`
}

type RecordOutcomeOutput struct {
	InteractionID string         `json:"interaction_id"`
	ListType      string         `json:"list_type"`
	FollowupID    string         `json:"followup_id,omitempty"`
	Meeting       *MeetingOutput `json:"meeting,omitempty"`
}

func (h *Handlers) RecordOutcome(ctx context.Context, _ *mcp.CallToolRequest, input RecordOutcomeInput) (*mcp.CallToolResult, RecordOutcomeOutput, error) {
	if input.InvestorID == "" {
		return nil, RecordOutcomeOutput{}, errors.New("investor_id is required")
	}
	var followupDate *time.Time
	if input.FollowupDate != "" {
		d, err := parseTime("followup_date", input.FollowupDate)
		if err != nil {
			return nil, RecordOutcomeOutput{}, err
		}
		followupDate = &d
	}

	res, err := h.mutator.RecordOutcome(ctx, outreach.OutcomeRequest{
		InvestorID:   models.ID(input.InvestorID),
		CompanyID:    models.ID(input.CompanyID),
		CompanyName:  input.CompanyName,
		MeetingID:    models.ID(input.MeetingID),
		Outcome:      input.Outcome,
		Notes:        input.Notes,
		FollowupDate: followupDate,
	})
	if err != nil {
		return nil, RecordOutcomeOutput{}, err
	}
	lt, _ := outreach.OutcomeList(input.Outcome)
	out := RecordOutcomeOutput{
		InteractionID: res.Interaction.ID.String(),
		ListType:      string(lt),
		Meeting:       meetingToOutput(res.Meeting),
	}
	if res.Followup != nil {
		out.FollowupID = res.Followup.ID.String()
	}
	return nil, out, nil
}

// ABOUTME: Meeting, followup and outcome flows built on the optimistic protocol
// ABOUTME: Scheduling converts interested rows, status changes target the latest meeting
package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confideleapcrm/irdesk/events"
	"github.com/confideleapcrm/irdesk/models"
)

// ScheduleRequest books a meeting with an investor for a company.
type ScheduleRequest struct {
	InvestorID      models.ID
	CompanyID       models.ID
	CompanyName     string
	Snapshot        *models.InvestorSnapshot
	Title           string
	Datetime        time.Time
	DurationMinutes int
	Timezone        string
	Attendees       string
	Notes           string
	GenerateLink    bool
}

type ScheduleResult struct {
	Meeting  *models.Meeting
	Row      *models.InvestorListRow
	MeetLink string
}

// ScheduleMeeting creates the meeting and moves the investor into the
// meeting list. When the meeting exists but a later step fails the result
// is returned together with the error.
func (m *Mutator) ScheduleMeeting(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error) {
	if req.InvestorID.IsZero() {
		return nil, errors.New("investor id is required")
	}
	if req.Datetime.IsZero() {
		return nil, errors.New("meeting time is required")
	}
	snap, err := m.resolveSnapshot(ctx, req.InvestorID, req.CompanyName, req.Snapshot)
	if err != nil {
		return nil, err
	}
	when := models.NewTime(req.Datetime)
	snap.Meeting = &models.MeetingInfo{Status: models.MeetingScheduled, Datetime: when, Notes: req.Notes}
	snap.Scheduling = &models.SchedulingInfo{
		Datetime:        when,
		DurationMinutes: req.DurationMinutes,
		Timezone:        req.Timezone,
		Attendees:       req.Attendees,
	}

	mut := m.begin(ctx, "schedule_meeting", models.ListMeeting, req.InvestorID, req.CompanyID, snap)

	meeting, err := m.backend.CreateMeeting(ctx, models.MeetingInput{
		InvestorID:      req.InvestorID,
		CompanyID:       req.CompanyID,
		Title:           req.Title,
		Status:          models.MeetingScheduled,
		MeetingDatetime: when,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		err = fmt.Errorf("failed to create meeting: %w", err)
		m.rollback(ctx, mut, err)
		return nil, err
	}
	m.events.Publish(ctx, events.Event{Name: events.MeetingCreated, Detail: events.MeetingDetail{Meeting: *meeting}})

	result := &ScheduleResult{Meeting: meeting}
	info := *snap.Meeting
	info.ID = meeting.ID
	snap.Meeting = &info

	up, err := m.UpsertListMembership(ctx, req.InvestorID, req.CompanyID, models.ListMeeting, snap)
	if err != nil {
		m.rollback(ctx, mut, err)
		return result, err
	}
	m.confirm(ctx, mut, up.Row)
	m.announceUpsert(ctx, up)
	result.Row = up.Row

	if !req.CompanyID.IsZero() && up.Row.CompanyID.IsZero() {
		stamp := models.RowInput{
			InvestorID: req.InvestorID,
			ListType:   models.ListMeeting,
			CompanyID:  req.CompanyID,
			Snapshot:   up.Row.Snapshot,
		}
		if stamp.Snapshot == (models.InvestorSnapshot{}) {
			stamp.Snapshot = snap
		}
		stamped, err := m.backend.UpdateRow(ctx, up.Row.ID, stamp)
		if err != nil {
			m.logger.Warn("failed to record company on meeting row", "id", up.Row.ID, "company_id", req.CompanyID, "error", err)
		} else {
			result.Row = stamped
			m.refreshRow(ctx, models.ListMeeting, stamped)
		}
	}

	if req.GenerateLink {
		link, err := m.GenerateMeetLink(ctx, meeting.ID)
		if err != nil {
			return result, err
		}
		result.MeetLink = link
		meeting.MeetLink = link
	}
	return result, nil
}

// SetMeetingStatus updates the latest meeting for the investor and company.
// The new status is announced before the write and reverted if it fails.
func (m *Mutator) SetMeetingStatus(ctx context.Context, investorID, companyID models.ID, status string) (*models.Meeting, error) {
	meetings, err := m.backend.ListMeetings(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meetings: %w", err)
	}
	latest := models.LatestMeeting(meetings, companyID)
	if latest == nil {
		return nil, ErrNoMeeting
	}

	optimistic := *latest
	optimistic.Status = status
	m.publishOutcome(ctx, investorID, companyID, &optimistic, "")

	updated, err := m.backend.UpdateMeeting(ctx, latest.ID, models.MeetingInput{Status: status})
	if err != nil {
		original := *latest
		m.publishOutcome(ctx, investorID, companyID, &original, "")
		m.logger.Error("failed to update meeting status", "meeting_id", latest.ID, "status", status, "error", err)
		return nil, fmt.Errorf("failed to update meeting %s: %w", latest.ID, err)
	}
	m.publishOutcome(ctx, investorID, companyID, updated, "")
	return updated, nil
}

// MarkMeetingDone completes the latest meeting for the investor and company.
func (m *Mutator) MarkMeetingDone(ctx context.Context, investorID, companyID models.ID) (*models.Meeting, error) {
	return m.SetMeetingStatus(ctx, investorID, companyID, models.MeetingCompleted)
}

func (m *Mutator) publishOutcome(ctx context.Context, investorID, companyID models.ID, meeting *models.Meeting, outcome string) {
	m.events.Publish(ctx, events.Event{Name: events.PostMeetOutcomeSaved, Detail: events.OutcomeDetail{
		InvestorID: investorID,
		CompanyID:  companyID,
		Meeting:    meeting,
		Outcome:    outcome,
	}})
}

// FollowupRequest schedules a followup with an investor.
type FollowupRequest struct {
	InvestorID  models.ID
	CompanyID   models.ID
	CompanyName string
	Snapshot    *models.InvestorSnapshot
	Date        time.Time
	Notes       string
}

type FollowupResult struct {
	Followup *models.Followup
	Row      *models.InvestorListRow
}

// CreateFollowup records the followup and places the investor in the
// followups list.
func (m *Mutator) CreateFollowup(ctx context.Context, req FollowupRequest) (*FollowupResult, error) {
	if req.InvestorID.IsZero() {
		return nil, errors.New("investor id is required")
	}
	snap, err := m.resolveSnapshot(ctx, req.InvestorID, req.CompanyName, req.Snapshot)
	if err != nil {
		return nil, err
	}
	date := models.NewTime(req.Date)
	snap.Followup = &models.FollowupInfo{Date: date, Notes: req.Notes}

	mut := m.begin(ctx, "create_followup", models.ListFollowups, req.InvestorID, req.CompanyID, snap)

	followup, err := m.backend.CreateFollowup(ctx, models.FollowupInput{
		InvestorID:   req.InvestorID,
		CompanyID:    req.CompanyID,
		FollowupDate: date,
		Status:       "pending",
		Notes:        req.Notes,
	})
	if err != nil {
		err = fmt.Errorf("failed to create followup: %w", err)
		m.rollback(ctx, mut, err)
		return nil, err
	}
	m.events.Publish(ctx, events.Event{Name: events.FollowupCreated, Detail: events.FollowupDetail{Followup: *followup}})

	info := *snap.Followup
	info.ID = followup.ID
	snap.Followup = &info

	result := &FollowupResult{Followup: followup}
	up, err := m.UpsertListMembership(ctx, req.InvestorID, req.CompanyID, models.ListFollowups, snap)
	if err != nil {
		m.rollback(ctx, mut, err)
		return result, err
	}
	m.confirm(ctx, mut, up.Row)
	result.Row = up.Row
	return result, nil
}

// OutcomeRequest records how a conversation with an investor went.
type OutcomeRequest struct {
	InvestorID   models.ID
	CompanyID    models.ID
	CompanyName  string
	MeetingID    models.ID
	Outcome      string
	Notes        string
	FollowupDate *time.Time
	Snapshot     *models.InvestorSnapshot
}

type OutcomeResult struct {
	Interaction *models.Interaction
	Followup    *models.Followup
	Meeting     *models.Meeting
	Row         *models.InvestorListRow
}

// OutcomeList maps an interaction outcome to the list it files the investor in.
func OutcomeList(outcome string) (models.ListType, bool) {
	switch outcome {
	case models.OutcomeInterested:
		return models.ListInterested, true
	case models.OutcomeNotInterested:
		return models.ListNotInterested, true
	case models.OutcomeFollowUp:
		return models.ListFollowups, true
	}
	return "", false
}

// RecordOutcome stores the interaction, an optional followup and the
// resulting list membership. A given meeting is marked completed.
func (m *Mutator) RecordOutcome(ctx context.Context, req OutcomeRequest) (*OutcomeResult, error) {
	listType, ok := OutcomeList(req.Outcome)
	if !ok {
		return nil, fmt.Errorf("unknown outcome %q", req.Outcome)
	}
	if req.InvestorID.IsZero() {
		return nil, errors.New("investor id is required")
	}
	snap, err := m.resolveSnapshot(ctx, req.InvestorID, req.CompanyName, req.Snapshot)
	if err != nil {
		return nil, err
	}
	if req.Outcome == models.OutcomeNotInterested {
		snap.NotInterestedNote = req.Notes
	}

	mut := m.begin(ctx, "record_outcome", listType, req.InvestorID, req.CompanyID, snap)

	interaction, err := m.backend.CreateInteraction(ctx, models.InteractionInput{
		InvestorID: req.InvestorID,
		CompanyID:  req.CompanyID,
		MeetingID:  req.MeetingID,
		Outcome:    req.Outcome,
		Notes:      req.Notes,
	})
	if err != nil {
		err = fmt.Errorf("failed to record outcome: %w", err)
		m.rollback(ctx, mut, err)
		return nil, err
	}
	m.events.Publish(ctx, events.Event{Name: events.InteractionCreated, Detail: events.InteractionDetail{Interaction: *interaction}})
	result := &OutcomeResult{Interaction: interaction}

	if req.Outcome == models.OutcomeFollowUp && req.FollowupDate != nil {
		followup, err := m.backend.CreateFollowup(ctx, models.FollowupInput{
			InvestorID:   req.InvestorID,
			CompanyID:    req.CompanyID,
			FollowupDate: models.NewTime(*req.FollowupDate),
			Status:       "pending",
			Notes:        req.Notes,
		})
		if err != nil {
			m.logger.Warn("failed to create followup for outcome", "investor_id", req.InvestorID, "error", err)
		} else {
			result.Followup = followup
			snap.Followup = &models.FollowupInfo{ID: followup.ID, Date: followup.FollowupDate, Notes: followup.Notes}
			m.events.Publish(ctx, events.Event{Name: events.FollowupCreated, Detail: events.FollowupDetail{Followup: *followup}})
		}
	}

	up, err := m.UpsertListMembership(ctx, req.InvestorID, req.CompanyID, listType, snap)
	if err != nil {
		m.rollback(ctx, mut, err)
		return result, err
	}
	m.confirm(ctx, mut, up.Row)
	result.Row = up.Row

	if !req.MeetingID.IsZero() {
		meeting, err := m.backend.UpdateMeeting(ctx, req.MeetingID, models.MeetingInput{Status: models.MeetingCompleted})
		if err != nil {
			m.logger.Warn("failed to complete meeting after outcome", "meeting_id", req.MeetingID, "error", err)
		} else {
			result.Meeting = meeting
		}
	}
	m.publishOutcome(ctx, req.InvestorID, req.CompanyID, result.Meeting, req.Outcome)
	return result, nil
}

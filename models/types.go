// ABOUTME: Data models for investor-relations entities
// ABOUTME: Defines list rows, snapshots, meetings, followups, interactions, companies and counts
package models

import (
	"encoding/json"
)

// ListType names an outreach-stage bucket.
type ListType string

const (
	ListInterested    ListType = "interested"
	ListFollowups     ListType = "followups"
	ListNotInterested ListType = "not_interested"
	ListMeeting       ListType = "meeting"
	// ListMaybe is accepted by the write API but never surfaced.
	ListMaybe ListType = "maybe"
	// ListMatching is the free-search mode; it is never a row's list type.
	ListMatching ListType = "matching"
)

// DisplayLists are the categories shown as tabs and counted.
var DisplayLists = []ListType{ListInterested, ListFollowups, ListNotInterested, ListMeeting}

// Valid reports whether l can be written as a row's list type.
func (l ListType) Valid() bool {
	switch l {
	case ListInterested, ListFollowups, ListNotInterested, ListMeeting, ListMaybe:
		return true
	}
	return false
}

// ParseListType accepts the canonical names plus a few CLI-friendly aliases.
func ParseListType(s string) (ListType, bool) {
	switch s {
	case "interested":
		return ListInterested, true
	case "followups", "followup", "follow_up", "follow-up":
		return ListFollowups, true
	case "not_interested", "not-interested", "notinterested":
		return ListNotInterested, true
	case "meeting", "meetings":
		return ListMeeting, true
	case "maybe":
		return ListMaybe, true
	case "matching", "search":
		return ListMatching, true
	}
	return "", false
}

// Meeting statuses.
const (
	MeetingScheduled   = "scheduled"
	MeetingCompleted   = "completed"
	MeetingCancelled   = "cancelled"
	MeetingRescheduled = "rescheduled"
	MeetingNoShow      = "no_show"
)

// Interaction outcomes.
const (
	OutcomeInterested    = "interested"
	OutcomeNotInterested = "not_interested"
	OutcomeFollowUp      = "follow_up"
)

// Meet link creation statuses returned by generate_meet.
const (
	GoogleStatusCreated        = "CREATED"
	GoogleStatusNoRefreshToken = "NO_REFRESH_TOKEN"
)

// MeetingInfo is the meeting portion of a list row snapshot.
type MeetingInfo struct {
	ID       ID     `json:"id,omitempty"`
	Status   string `json:"status,omitempty"`
	Datetime *Time  `json:"meeting_datetime,omitempty"`
	Link     string `json:"meet_link,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// FollowupInfo is the followup portion of a list row snapshot.
type FollowupInfo struct {
	ID    ID     `json:"id,omitempty"`
	Date  *Time  `json:"followup_date,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// SchedulingInfo captures the scheduling form state when a meeting was booked.
type SchedulingInfo struct {
	Datetime        *Time  `json:"datetime,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
	Attendees       string `json:"attendees,omitempty"`
}

// InvestorSnapshot is a point-in-time copy of investor and scheduling data
// cached on a list row. It is not kept in sync with the investor record.
type InvestorSnapshot struct {
	Name              string          `json:"name,omitempty"`
	Email             string          `json:"email,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	Firm              string          `json:"firm,omitempty"`
	CompanyName       string          `json:"company_name,omitempty"`
	PortfolioFit      *float64        `json:"portfolio_fit,omitempty"`
	Meeting           *MeetingInfo    `json:"meeting,omitempty"`
	Followup          *FollowupInfo   `json:"followup,omitempty"`
	Scheduling        *SchedulingInfo `json:"scheduling,omitempty"`
	NotInterestedNote string          `json:"notInterestedNote,omitempty"`
}

// InvestorListRow is one membership of an investor in a list.
type InvestorListRow struct {
	ID         ID               `json:"id"`
	InvestorID ID               `json:"investor_id"`
	ListType   ListType         `json:"list_type"`
	CompanyID  ID               `json:"company_id"`
	Snapshot   InvestorSnapshot `json:"snapshot"`
	Optimistic bool             `json:"_optimistic,omitempty"`
	CreatedAt  *Time            `json:"created_at,omitempty"`
	UpdatedAt  *Time            `json:"updated_at,omitempty"`
}

// SamePair reports whether the row belongs to the given investor and company.
func (r *InvestorListRow) SamePair(investorID, companyID ID) bool {
	return r.InvestorID == investorID && r.CompanyID == companyID
}

// RowInput is the write payload for list membership create/update.
type RowInput struct {
	InvestorID ID               `json:"investor_id"`
	ListType   ListType         `json:"list_type"`
	CompanyID  ID               `json:"company_id"`
	Snapshot   InvestorSnapshot `json:"snapshot"`
}

type Investor struct {
	ID           ID         `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Firm         string     `json:"firm,omitempty"`
	FirmType     string     `json:"firm_type,omitempty"`
	Sectors      StringList `json:"sectors,omitempty"`
	AUM          string     `json:"aum,omitempty"`
	BuySell      string     `json:"buy_sell,omitempty"`
	City         string     `json:"city,omitempty"`
	Country      string     `json:"country,omitempty"`
	PortfolioFit *float64   `json:"portfolio_fit,omitempty"`
	CreatedAt    *Time      `json:"created_at,omitempty"`
}

// Snapshot captures the investor fields needed to render a list card.
func (i *Investor) Snapshot(company *Company) InvestorSnapshot {
	s := InvestorSnapshot{
		Name:         i.Name,
		Email:        i.Email,
		Phone:        i.Phone,
		Firm:         i.Firm,
		PortfolioFit: i.PortfolioFit,
	}
	if company != nil {
		s.CompanyName = company.Name
	}
	return s
}

type Company struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Meeting struct {
	ID              ID     `json:"id"`
	InvestorID      ID     `json:"investor_id"`
	CompanyID       ID     `json:"company_id"`
	CompanyName     string `json:"company_name,omitempty"`
	Title           string `json:"title,omitempty"`
	Status          string `json:"status,omitempty"`
	MeetingDatetime *Time  `json:"meeting_datetime,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	MeetLink        string `json:"meet_link,omitempty"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       *Time  `json:"created_at,omitempty"`
}

// MeetingInput is the write payload for meeting create/update.
type MeetingInput struct {
	InvestorID      ID     `json:"investor_id,omitempty"`
	CompanyID       ID     `json:"company_id,omitempty"`
	Title           string `json:"title,omitempty"`
	Status          string `json:"status,omitempty"`
	MeetingDatetime *Time  `json:"meeting_datetime,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	MeetLink        string `json:"meet_link,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// MeetLinkResult is the response of the generate_meet endpoint.
type MeetLinkResult struct {
	MeetLink           string `json:"meet_link,omitempty"`
	GoogleCreateStatus string `json:"google_create_status,omitempty"`
}

type Followup struct {
	ID           ID     `json:"id"`
	InvestorID   ID     `json:"investor_id"`
	CompanyID    ID     `json:"company_id"`
	CompanyName  string `json:"company_name,omitempty"`
	FollowupDate *Time  `json:"followup_date,omitempty"`
	Status       string `json:"status,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    *Time  `json:"created_at,omitempty"`
}

type FollowupInput struct {
	InvestorID   ID     `json:"investor_id"`
	CompanyID    ID     `json:"company_id,omitempty"`
	FollowupDate *Time  `json:"followup_date,omitempty"`
	Status       string `json:"status,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type Interaction struct {
	ID              ID     `json:"id"`
	InvestorID      ID     `json:"investor_id"`
	CompanyID       ID     `json:"company_id"`
	CompanyName     string `json:"company_name,omitempty"`
	Outcome         string `json:"outcome,omitempty"`
	Notes           string `json:"notes,omitempty"`
	InteractionDate *Time  `json:"interaction_date,omitempty"`
	CreatedAt       *Time  `json:"created_at,omitempty"`
}

type InteractionInput struct {
	InvestorID ID     `json:"investor_id"`
	CompanyID  ID     `json:"company_id,omitempty"`
	MeetingID  ID     `json:"meeting_id,omitempty"`
	Outcome    string `json:"outcome"`
	Notes      string `json:"notes,omitempty"`
}

type User struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt *Time  `json:"created_at,omitempty"`
}

type UserInput struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
	Active   *bool  `json:"active,omitempty"`
}

// TargetingQuery parameterises the paginated investor search.
type TargetingQuery struct {
	Search  string
	Page    int
	Limit   int
	Filters TargetingFilters
}

// TargetingPage is one page of investor search results plus summary metrics.
type TargetingPage struct {
	Investors []Investor     `json:"investors"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	Limit     int            `json:"limit"`
	Metrics   map[string]any `json:"metrics,omitempty"`
}

// Counts holds the size of every displayed list. Meetings and Meeting are
// kept equal; both keys are read by different consumers.
type Counts struct {
	Interested    int `json:"interested"`
	Followups     int `json:"followups"`
	NotInterested int `json:"not_interested"`
	Meetings      int `json:"meetings"`
	Meeting       int `json:"meeting"`
}

// Get returns the count for a list type.
func (c Counts) Get(l ListType) int {
	switch l {
	case ListInterested:
		return c.Interested
	case ListFollowups:
		return c.Followups
	case ListNotInterested:
		return c.NotInterested
	case ListMeeting:
		return c.Meetings
	}
	return 0
}

// Set replaces the count for a list type.
func (c *Counts) Set(l ListType, n int) {
	if n < 0 {
		n = 0
	}
	switch l {
	case ListInterested:
		c.Interested = n
	case ListFollowups:
		c.Followups = n
	case ListNotInterested:
		c.NotInterested = n
	case ListMeeting:
		c.Meetings = n
		c.Meeting = n
	}
}

// Add adjusts the count for a list type, never going below zero.
func (c *Counts) Add(l ListType, delta int) {
	c.Set(l, c.Get(l)+delta)
}

// decodeEnvelope is shared by the custom unmarshalers below.
func decodeEnvelope(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ABOUTME: Shared state and output shapes for the MCP tool handlers
// ABOUTME: Handlers drive the list store, mutator and activity aggregator
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/confideleapcrm/irdesk/activity"
	"github.com/confideleapcrm/irdesk/liststore"
	"github.com/confideleapcrm/irdesk/models"
	"github.com/confideleapcrm/irdesk/outreach"
)

// Searcher is the investor search used by search_investors.
type Searcher interface {
	SearchInvestors(ctx context.Context, q models.TargetingQuery) (*models.TargetingPage, error)
}

// Deps wires the handlers to the core components.
type Deps struct {
	Store     *liststore.Store
	Mutator   *outreach.Mutator
	Searcher  Searcher
	Activity  activity.Fetcher
	Directory *activity.Directory
	PageSize  int
}

type Handlers struct {
	store    *liststore.Store
	mutator  *outreach.Mutator
	searcher Searcher
	activity activity.Fetcher
	dir      *activity.Directory
	pageSize int
}

func New(d Deps) *Handlers {
	pageSize := d.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	return &Handlers{
		store:    d.Store,
		mutator:  d.Mutator,
		searcher: d.Searcher,
		activity: d.Activity,
		dir:      d.Directory,
		pageSize: pageSize,
	}
}

type RowOutput struct {
	ID            string   `json:"id"`
	InvestorID    string   `json:"investor_id"`
	ListType      string   `json:"list_type"`
	CompanyID     string   `json:"company_id,omitempty"`
	Name          string   `json:"name,omitempty"`
	Firm          string   `json:"firm,omitempty"`
	Email         string   `json:"email,omitempty"`
	CompanyName   string   `json:"company_name,omitempty"`
	PortfolioFit  *float64 `json:"portfolio_fit,omitempty"`
	MeetingStatus string   `json:"meeting_status,omitempty"`
	MeetingAt     string   `json:"meeting_at,omitempty"`
	MeetLink      string   `json:"meet_link,omitempty"`
	Pending       bool     `json:"pending,omitempty"`
}

func rowToOutput(row *models.InvestorListRow) RowOutput {
	out := RowOutput{
		ID:           row.ID.String(),
		InvestorID:   row.InvestorID.String(),
		ListType:     string(row.ListType),
		CompanyID:    row.CompanyID.String(),
		Name:         row.Snapshot.Name,
		Firm:         row.Snapshot.Firm,
		Email:        row.Snapshot.Email,
		CompanyName:  row.Snapshot.CompanyName,
		PortfolioFit: row.Snapshot.PortfolioFit,
		Pending:      row.Optimistic,
	}
	if m := row.Snapshot.Meeting; m != nil {
		out.MeetingStatus = m.Status
		out.MeetingAt = formatTime(m.Datetime)
		out.MeetLink = m.Link
	}
	return out
}

type MeetingOutput struct {
	ID        string `json:"id"`
	Status    string `json:"status,omitempty"`
	Title     string `json:"title,omitempty"`
	MeetingAt string `json:"meeting_at,omitempty"`
	MeetLink  string `json:"meet_link,omitempty"`
}

func meetingToOutput(m *models.Meeting) *MeetingOutput {
	if m == nil {
		return nil
	}
	return &MeetingOutput{
		ID:        m.ID.String(),
		Status:    m.Status,
		Title:     m.Title,
		MeetingAt: formatTime(m.MeetingDatetime),
		MeetLink:  m.MeetLink,
	}
}

func formatTime(t *models.Time) string {
	if v := t.Value(); !v.IsZero() {
		return v.Format(time.RFC3339)
	}
	return ""
}

func parseListType(s string) (models.ListType, error) {
	lt, ok := models.ParseListType(s)
	if !ok {
		return "", fmt.Errorf("unknown list type %q (valid: interested, followups, not_interested, meeting)", s)
	}
	return lt, nil
}

func parseTime(field, s string) (time.Time, error) {
	t, ok := models.ParseTime(s)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid %s %q (use YYYY-MM-DD or YYYY-MM-DDTHH:MM)", field, s)
	}
	return t, nil
}

func toIDs(values []string) []models.ID {
	out := make([]models.ID, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, models.ID(v))
		}
	}
	return out
}

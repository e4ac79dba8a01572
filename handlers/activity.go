// ABOUTME: Investor activity timeline MCP tool handler
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confideleapcrm/irdesk/activity"
	"github.com/confideleapcrm/irdesk/models"
)

type InvestorActivityInput struct {
	InvestorID  string   `json:"investor_id" jsonschema:"Investor id (required)"`
	From        string   `json:"from,omitempty" jsonschema:"Start date YYYY-MM-DD (default four days ago)"`
	To          string   `json:"to,omitempty" jsonschema:"End date YYYY-MM-DD inclusive (default today)"`
	AllTime     bool     `json:"all_time,omitempty" jsonschema:"Ignore the date range"`
	CompanyIDs  []string `json:"company_ids,omitempty" jsonschema:"Only activity for these company ids"`
	CompanyName string   `json:"company_name,omitempty" jsonschema:"Only activity for this company name"`
	Type        string   `json:"type,omitempty" jsonschema:"Meeting, Followup, Interested or Not Interested"`
	SortBy      string   `json:"sort_by,omitempty" jsonschema:"date, company or activity"`
	Descending  bool     `json:"descending,omitempty" jsonschema:"Reverse the sort order"`
}

type ActivityRowOutput struct {
	Key         string `json:"key"`
	Type        string `json:"type"`
	Source      string `json:"source"`
	SourceID    string `json:"source_id"`
	CompanyName string `json:"company_name,omitempty"`
	Date        string `json:"date,omitempty"`
	Content     string `json:"content,omitempty"`
	Status      string `json:"status,omitempty"`
}

type InvestorActivityOutput struct {
	Rows      []ActivityRowOutput `json:"rows"`
	Companies []string            `json:"companies"`
}

func (h *Handlers) InvestorActivity(ctx context.Context, _ *mcp.CallToolRequest, input InvestorActivityInput) (*mcp.CallToolResult, InvestorActivityOutput, error) {
	if input.InvestorID == "" {
		return nil, InvestorActivityOutput{}, errors.New("investor_id is required")
	}
	filters, err := ActivityFilters(input, time.Now())
	if err != nil {
		return nil, InvestorActivityOutput{}, err
	}

	res, err := activity.ForInvestor(ctx, h.activity, h.dir, models.ID(input.InvestorID), filters)
	if err != nil {
		return nil, InvestorActivityOutput{}, err
	}

	out := InvestorActivityOutput{Companies: res.Companies, Rows: make([]ActivityRowOutput, len(res.Rows))}
	if out.Companies == nil {
		out.Companies = []string{}
	}
	for i, r := range res.Rows {
		row := ActivityRowOutput{
			Key:         r.Key(),
			Type:        string(r.Type),
			Source:      string(r.Source),
			SourceID:    r.SourceID.String(),
			CompanyName: r.CompanyName,
			Content:     r.Content,
			Status:      r.Status,
		}
		if !r.Date.IsZero() {
			row.Date = r.Date.Format(time.RFC3339)
		}
		out.Rows[i] = row
	}
	return nil, out, nil
}

// ActivityFilters validates input and resolves the date range relative to now.
func ActivityFilters(input InvestorActivityInput, now time.Time) (activity.Filters, error) {
	f := activity.Filters{
		CompanyIDs:  toIDs(input.CompanyIDs),
		CompanyName: input.CompanyName,
		SortBy:      activity.SortKey(input.SortBy),
		Descending:  input.Descending,
	}
	switch f.SortBy {
	case "", activity.SortDate, activity.SortCompany, activity.SortActivity:
	default:
		return f, fmt.Errorf("unknown sort_by %q", input.SortBy)
	}
	if input.Type != "" {
		t, ok := activity.ParseType(input.Type)
		if !ok {
			return f, fmt.Errorf("unknown activity type %q", input.Type)
		}
		f.Type = t
	}
	if input.AllTime {
		return f, nil
	}

	f.From, f.To = activity.DefaultRange(now)
	if input.From != "" {
		t, err := parseTime("from", input.From)
		if err != nil {
			return f, err
		}
		f.From = t
	}
	if input.To != "" {
		t, err := parseTime("to", input.To)
		if err != nil {
			return f, err
		}
		f.To = t
	}
	return f, nil
}

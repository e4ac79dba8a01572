// ABOUTME: List MCP tool handlers
// ABOUTME: Implements list_rows, list_counts, add_to_list and remove_from_list
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confideleapcrm/irdesk/models"
	"github.com/confideleapcrm/irdesk/outreach"
)

type ListRowsInput struct {
	ListType   string   `json:"list_type" jsonschema:"List to show: interested, followups, not_interested or meeting"`
	CompanyIDs []string `json:"company_ids,omitempty" jsonschema:"Only rows for these company ids"`
}

type ListRowsOutput struct {
	ListType string      `json:"list_type"`
	Rows     []RowOutput `json:"rows"`
}

func (h *Handlers) ListRows(ctx context.Context, _ *mcp.CallToolRequest, input ListRowsInput) (*mcp.CallToolResult, ListRowsOutput, error) {
	lt, err := parseListType(input.ListType)
	if err != nil {
		return nil, ListRowsOutput{}, err
	}
	if lt == models.ListMatching {
		return nil, ListRowsOutput{}, errors.New("use search_investors for matching")
	}

	h.store.SetCompanyFilter(toIDs(input.CompanyIDs))
	if err := h.store.LoadList(ctx, lt); err != nil {
		return nil, ListRowsOutput{}, fmt.Errorf("failed to load %s: %w", lt, err)
	}

	rows := h.store.Rows()
	out := ListRowsOutput{ListType: string(lt), Rows: make([]RowOutput, len(rows))}
	for i := range rows {
		out.Rows[i] = rowToOutput(&rows[i])
	}
	return nil, out, nil
}

type ListCountsInput struct {
	CompanyIDs []string `json:"company_ids,omitempty" jsonschema:"Count only rows for these company ids"`
}

type ListCountsOutput struct {
	Interested    int `json:"interested"`
	Followups     int `json:"followups"`
	NotInterested int `json:"not_interested"`
	Meeting       int `json:"meeting"`
}

func (h *Handlers) ListCounts(ctx context.Context, _ *mcp.CallToolRequest, input ListCountsInput) (*mcp.CallToolResult, ListCountsOutput, error) {
	h.store.SetCompanyFilter(toIDs(input.CompanyIDs))
	h.store.RefreshCounts(ctx)
	c := h.store.DisplayCounts()
	return nil, ListCountsOutput{
		Interested:    c.Interested,
		Followups:     c.Followups,
		NotInterested: c.NotInterested,
		Meeting:       c.Meetings,
	}, nil
}

type AddToListInput struct {
	InvestorID  string `json:"investor_id" jsonschema:"Investor id (required)"`
	ListType    string `json:"list_type" jsonschema:"Target list: interested, followups, not_interested or meeting"`
	CompanyID   string `json:"company_id,omitempty" jsonschema:"Company the outreach is for"`
	CompanyName string `json:"company_name,omitempty" jsonschema:"Company name stored on the row snapshot"`
}

func (h *Handlers) AddToList(ctx context.Context, _ *mcp.CallToolRequest, input AddToListInput) (*mcp.CallToolResult, RowOutput, error) {
	if input.InvestorID == "" {
		return nil, RowOutput{}, errors.New("investor_id is required")
	}
	lt, err := parseListType(input.ListType)
	if err != nil {
		return nil, RowOutput{}, err
	}
	row, err := h.mutator.AddToList(ctx, outreach.AddRequest{
		InvestorID:  models.ID(input.InvestorID),
		CompanyID:   models.ID(input.CompanyID),
		CompanyName: input.CompanyName,
		ListType:    lt,
	})
	if err != nil {
		return nil, RowOutput{}, err
	}
	return nil, rowToOutput(row), nil
}

type RemoveFromListInput struct {
	RowIDs []string `json:"row_ids" jsonschema:"List row ids to delete"`
}

type RemoveFromListOutput struct {
	Removed int `json:"removed"`
}

func (h *Handlers) RemoveFromList(ctx context.Context, _ *mcp.CallToolRequest, input RemoveFromListInput) (*mcp.CallToolResult, RemoveFromListOutput, error) {
	ids := toIDs(input.RowIDs)
	if len(ids) == 0 {
		return nil, RemoveFromListOutput{}, errors.New("row_ids is required")
	}
	if err := h.store.RemoveSelected(ctx, ids); err != nil {
		return nil, RemoveFromListOutput{}, err
	}
	return nil, RemoveFromListOutput{Removed: len(ids)}, nil
}

// ABOUTME: Investor search MCP tool handler
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confideleapcrm/irdesk/models"
)

type SearchInvestorsInput struct {
	Query      string   `json:"query,omitempty" jsonschema:"Free text search over investor name and firm"`
	FirmTypes  []string `json:"firm_types,omitempty" jsonschema:"Firm types such as VC or PE"`
	Sectors    []string `json:"sectors,omitempty" jsonschema:"Sector names"`
	CompanyIDs []string `json:"company_ids,omitempty" jsonschema:"Restrict to investors relevant to these companies"`
	Page       int      `json:"page,omitempty" jsonschema:"Page number starting at 1"`
	Limit      int      `json:"limit,omitempty" jsonschema:"Page size"`
}

type InvestorOutput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Firm         string   `json:"firm,omitempty"`
	FirmType     string   `json:"firm_type,omitempty"`
	Email        string   `json:"email,omitempty"`
	Sectors      []string `json:"sectors,omitempty"`
	PortfolioFit *float64 `json:"portfolio_fit,omitempty"`
}

type SearchInvestorsOutput struct {
	Investors []InvestorOutput `json:"investors"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
}

func (h *Handlers) SearchInvestors(ctx context.Context, _ *mcp.CallToolRequest, input SearchInvestorsInput) (*mcp.CallToolResult, SearchInvestorsOutput, error) {
	page := input.Page
	if page <= 0 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = h.pageSize
	}

	result, err := h.searcher.SearchInvestors(ctx, models.TargetingQuery{
		Search: input.Query,
		Page:   page,
		Limit:  limit,
		Filters: models.TargetingFilters{
			FirmTypes:   input.FirmTypes,
			Sectors:     input.Sectors,
			CustomerIDs: input.CompanyIDs,
		},
	})
	if err != nil {
		return nil, SearchInvestorsOutput{}, fmt.Errorf("failed to search investors: %w", err)
	}

	out := SearchInvestorsOutput{Total: result.Total, Page: result.Page, Investors: make([]InvestorOutput, len(result.Investors))}
	for i, inv := range result.Investors {
		out.Investors[i] = InvestorOutput{
			ID:           inv.ID.String(),
			Name:         inv.Name,
			Firm:         inv.Firm,
			FirmType:     inv.FirmType,
			Email:        inv.Email,
			Sectors:      inv.Sectors,
			PortfolioFit: inv.PortfolioFit,
		}
	}
	return nil, out, nil
}

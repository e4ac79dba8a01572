// ABOUTME: GraphViz funnel MCP handler
// ABOUTME: Provides outreach_funnel tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confideleapcrm/irdesk/viz"
)

type OutreachFunnelInput struct {
	CompanyIDs []string `json:"company_ids,omitempty" jsonschema:"Count only rows for these company ids"`
}

type OutreachFunnelOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *Handlers) OutreachFunnel(ctx context.Context, _ *mcp.CallToolRequest, input OutreachFunnelInput) (*mcp.CallToolResult, OutreachFunnelOutput, error) {
	h.store.SetCompanyFilter(toIDs(input.CompanyIDs))
	h.store.RefreshCounts(ctx)

	dot, err := viz.RenderFunnel(ctx, h.store.DisplayCounts(), viz.FormatDOT)
	if err != nil {
		return nil, OutreachFunnelOutput{}, fmt.Errorf("failed to generate funnel: %w", err)
	}

	return nil, OutreachFunnelOutput{
		DOTSource: dot,
		NodeCount: strings.Count(dot, "[label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}

// ABOUTME: MCP resource handlers exposing list state
// ABOUTME: Provides read-only access to counts, list rows and the company directory
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confideleapcrm/irdesk/models"
)

const resourceScheme = "irdesk://"

// ReadResource serves irdesk://counts, irdesk://companies and
// irdesk://lists/<list type>.
func (h *Handlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}
	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")

	switch parts[0] {
	case "counts":
		h.store.RefreshCounts(ctx)
		return jsonResource(uri, h.store.Counts())

	case "companies":
		if h.dir == nil {
			return jsonResource(uri, []models.Company{})
		}
		if err := h.dir.Load(ctx); err != nil {
			return nil, err
		}
		return jsonResource(uri, h.dir.Companies())

	case "lists":
		if len(parts) < 2 || parts[1] == "" {
			return nil, fmt.Errorf("list type required: %slists/<type>", resourceScheme)
		}
		lt, err := parseListType(parts[1])
		if err != nil {
			return nil, err
		}
		if lt == models.ListMatching {
			return nil, fmt.Errorf("matching is not a stored list")
		}
		if err := h.store.LoadList(ctx, lt); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", lt, err)
		}
		rows := h.store.Rows()
		out := make([]RowOutput, len(rows))
		for i := range rows {
			out[i] = rowToOutput(&rows[i])
		}
		return jsonResource(uri, out)

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

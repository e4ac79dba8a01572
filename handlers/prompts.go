// ABOUTME: MCP prompt handlers for investor outreach workflows
// ABOUTME: Builds briefing and next-step prompts from an investor's activity
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confideleapcrm/irdesk/activity"
	"github.com/confideleapcrm/irdesk/models"
)

// GetPrompt generates the prompt message for the named template.
func (h *Handlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "investor-briefing":
		return h.investorBriefingPrompt(ctx, request.Params.Arguments)
	case "outreach-review":
		return h.outreachReviewPrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *Handlers) investorBriefingPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	investorID := args["investor_id"]
	if investorID == "" {
		return nil, fmt.Errorf("investor_id is required")
	}

	res, err := activity.ForInvestor(ctx, h.activity, h.dir, models.ID(investorID), activity.Filters{SortBy: activity.SortDate})
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Prepare a briefing for a conversation with investor %s.\n\n", investorID))
	if len(res.Rows) == 0 {
		text.WriteString("There is no recorded activity with this investor yet.\n")
	} else {
		text.WriteString("Activity so far (oldest first):\n")
		for _, r := range res.Rows {
			date := "undated"
			if !r.Date.IsZero() {
				date = r.Date.Format("2006-01-02")
			}
			kind := string(r.Type)
			if kind == "" {
				kind = "Interaction"
			}
			text.WriteString(fmt.Sprintf("- %s %s", date, kind))
			if r.CompanyName != "" {
				text.WriteString(" for " + r.CompanyName)
			}
			if r.Status != "" {
				text.WriteString(fmt.Sprintf(" [%s]", r.Status))
			}
			if r.Content != "" {
				text.WriteString(": " + r.Content)
			}
			text.WriteString("\n")
		}
	}
	text.WriteString("\nSummarise where things stand per company and suggest the next step.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Briefing for investor %s", investorID),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text.String()}},
		},
	}, nil
}

func (h *Handlers) outreachReviewPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	h.store.RefreshCounts(ctx)
	c := h.store.Counts()

	var text strings.Builder
	text.WriteString("Review the current investor outreach pipeline:\n\n")
	text.WriteString(fmt.Sprintf("Interested: %d\n", c.Interested))
	text.WriteString(fmt.Sprintf("Meetings: %d\n", c.Meetings))
	text.WriteString(fmt.Sprintf("Followups: %d\n", c.Followups))
	text.WriteString(fmt.Sprintf("Not interested: %d\n", c.NotInterested))
	text.WriteString("\nPoint out bottlenecks and which list needs attention first.")

	return &mcp.GetPromptResult{
		Description: "Outreach pipeline review",
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text.String()}},
		},
	}, nil
}

// ABOUTME: Builds the MCP server with every irdesk tool, resource and prompt
// ABOUTME: Shared by the mcp subcommand and the handler tests
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer registers h on a new MCP server.
func NewServer(h *Handlers, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "irdesk",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_investors",
		Description: "Search investors by text, firm type, sector or relevant company",
	}, h.SearchInvestors)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_rows",
		Description: "Show the investors in one outreach list, optionally filtered by company",
	}, h.ListRows)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_counts",
		Description: "Count investors in every outreach list",
	}, h.ListCounts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_list",
		Description: "Add an investor to an outreach list for a company",
	}, h.AddToList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_from_list",
		Description: "Delete list rows by id",
	}, h.RemoveFromList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "schedule_meeting",
		Description: "Book a meeting with an investor and move them to the meeting list",
	}, h.ScheduleMeeting)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_meeting_done",
		Description: "Set the status of the latest meeting between an investor and a company (default completed)",
	}, h.MarkMeetingDone)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_followup",
		Description: "Schedule a followup with an investor",
	}, h.CreateFollowup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_outcome",
		Description: "Record how a conversation went and file the investor in the matching list",
	}, h.RecordOutcome)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "investor_activity",
		Description: "Timeline of meetings, followups and interactions with an investor",
	}, h.InvestorActivity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "outreach_funnel",
		Description: "GraphViz DOT funnel of the outreach lists",
	}, h.OutreachFunnel)

	server.AddResource(&mcp.Resource{
		URI:      resourceScheme + "counts",
		Name:     "counts",
		MIMEType: "application/json",
	}, h.ReadResource)
	server.AddResource(&mcp.Resource{
		URI:      resourceScheme + "companies",
		Name:     "companies",
		MIMEType: "application/json",
	}, h.ReadResource)
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: resourceScheme + "lists/{list_type}",
		Name:        "list",
		MIMEType:    "application/json",
	}, h.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "investor-briefing",
		Description: "Brief me before talking to an investor",
		Arguments: []*mcp.PromptArgument{
			{Name: "investor_id", Description: "Investor id", Required: true},
		},
	}, h.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "outreach-review",
		Description: "Review list counts and suggest where to focus",
	}, h.GetPrompt)

	return server
}

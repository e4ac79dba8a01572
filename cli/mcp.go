// ABOUTME: MCP server subcommand
// ABOUTME: Serves the targeting tools, resources and prompts over stdio
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/confideleapcrm/irdesk/handlers"
)

func newMCPCmd(app *App, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.open(ctx); err != nil {
				return err
			}
			app.Logger.Info("starting MCP server", "api", app.Config.APIBaseURL)

			h := handlers.New(handlers.Deps{
				Store:     app.Store,
				Mutator:   app.Mutator,
				Searcher:  app.Client,
				Activity:  app.Client,
				Directory: app.Directory,
				PageSize:  app.Config.PageSize,
			})
			server := handlers.NewServer(h, version)
			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

// ABOUTME: Visualization CLI commands
// ABOUTME: Renders the outreach funnel as Graphviz DOT or SVG and the count dashboard
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confideleapcrm/irdesk/viz"
)

func newVizCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Visualize outreach progress",
	}

	var (
		format    string
		output    string
		companies []string
	)
	funnel := &cobra.Command{
		Use:   "funnel",
		Short: "Render the outreach funnel graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.open(ctx); err != nil {
				return err
			}
			app.Store.SetCompanyFilter(toIDs(companies))
			app.Store.RefreshCounts(ctx)

			graph, err := viz.RenderFunnel(ctx, app.Store.DisplayCounts(), viz.Format(format))
			if err != nil {
				return err
			}
			if output != "" {
				return os.WriteFile(output, []byte(graph), 0644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), graph)
			return nil
		},
	}
	funnel.Flags().StringVar(&format, "format", "dot", "dot or svg")
	funnel.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	funnel.Flags().StringSliceVar(&companies, "company", nil, "count only rows for these company ids")

	dashboard := &cobra.Command{
		Use:   "counts",
		Short: "Draw list sizes as bars",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.open(ctx); err != nil {
				return err
			}
			app.Store.RefreshCounts(ctx)
			fmt.Fprint(cmd.OutOrStdout(), viz.RenderCounts(app.Store.DisplayCounts()))
			return nil
		},
	}

	cmd.AddCommand(funnel, dashboard)
	return cmd
}

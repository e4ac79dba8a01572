// ABOUTME: Saved targeting filter commands
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confideleapcrm/irdesk/models"
)

func newPrefsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage the saved targeting filters",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(); err != nil {
				return err
			}
			return app.openDB()
		},
	}

	var filters models.TargetingFilters
	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Save targeting filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Prefs.Save(cmd.Context(), filters); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Filters saved")
			return nil
		},
	}
	saveCmd.Flags().StringSliceVar(&filters.FirmTypes, "firm-type", nil, "firm types")
	saveCmd.Flags().StringSliceVar(&filters.Sectors, "sector", nil, "sectors")
	saveCmd.Flags().StringSliceVar(&filters.AUM, "aum", nil, "AUM buckets")
	saveCmd.Flags().StringSliceVar(&filters.BuySell, "buy-sell", nil, "buy/sell side")
	saveCmd.Flags().StringSliceVar(&filters.CustomerIDs, "company", nil, "company ids")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showPrefs(cmd.Context(), cmd, app)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Prefs.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Filters cleared")
			return nil
		},
	}

	cmd.AddCommand(saveCmd, showCmd, clearCmd)
	return cmd
}

func showPrefs(ctx context.Context, cmd *cobra.Command, app *App) error {
	filters, ok, err := app.Prefs.Load(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintln(out, "No saved filters")
		return nil
	}
	w := newTable(out, "FILTER", "VALUES")
	row(w, "firm types", dash(strings.Join(filters.FirmTypes, ", ")))
	row(w, "sectors", dash(strings.Join(filters.Sectors, ", ")))
	row(w, "aum", dash(strings.Join(filters.AUM, ", ")))
	row(w, "buy/sell", dash(strings.Join(filters.BuySell, ", ")))
	row(w, "companies", dash(strings.Join(filters.CustomerIDs, ", ")))
	return w.Flush()
}

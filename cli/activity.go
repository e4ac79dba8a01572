// ABOUTME: Investor activity timeline command
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/confideleapcrm/irdesk/activity"
	"github.com/confideleapcrm/irdesk/handlers"
	"github.com/confideleapcrm/irdesk/models"
)

func newActivityCmd(app *App) *cobra.Command {
	var input handlers.InvestorActivityInput

	cmd := &cobra.Command{
		Use:   "activity <investor-id>",
		Short: "Show an investor's meetings, followups and outcomes",
		Long:  "Without --from/--to/--all the last five days are shown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filters, err := handlers.ActivityFilters(input, time.Now())
			if err != nil {
				return err
			}
			if err := app.open(ctx); err != nil {
				return err
			}
			res, err := activity.ForInvestor(ctx, app.Client, app.Directory, models.ID(args[0]), filters)
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout(), "DATE", "TYPE", "COMPANY", "STATUS", "DETAILS")
			for _, r := range res.Rows {
				row(w, dash(r.DisplayDate()), dash(string(r.Type)), dash(r.CompanyName), dash(r.Status), dash(r.Content))
			}
			w.Flush()
			if len(res.Companies) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\nCompanies in range: %v\n", res.Companies)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input.From, "from", "", "start date (inclusive)")
	cmd.Flags().StringVar(&input.To, "to", "", "end date (inclusive)")
	cmd.Flags().BoolVar(&input.AllTime, "all", false, "ignore the date range")
	cmd.Flags().StringSliceVar(&input.CompanyIDs, "company", nil, "only these company ids")
	cmd.Flags().StringVar(&input.CompanyName, "company-name", "", "only rows for this company name")
	cmd.Flags().StringVar(&input.Type, "type", "", "Meeting, Followup, Interested or Not Interested")
	cmd.Flags().StringVar(&input.SortBy, "sort", "date", "date, company or activity")
	cmd.Flags().BoolVar(&input.Descending, "desc", false, "sort descending")
	return cmd
}

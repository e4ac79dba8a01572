// ABOUTME: Investor search and outreach list commands
// ABOUTME: Show, add, remove and clear list rows and print count badges
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confideleapcrm/irdesk/models"
	"github.com/confideleapcrm/irdesk/outreach"
	"github.com/confideleapcrm/irdesk/viz"
)

func newSearchCmd(app *App) *cobra.Command {
	var (
		filters     models.TargetingFilters
		page, limit int
		saved       bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search investors for targeting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.open(ctx); err != nil {
				return err
			}
			if saved {
				stored, ok, err := app.Prefs.Load(ctx)
				if err != nil {
					return err
				}
				if ok && len(filters.CustomerIDs) == 0 {
					filters.CustomerIDs = stored.CustomerIDs
				}
			}
			if limit <= 0 {
				limit = app.Config.PageSize
			}
			q := models.TargetingQuery{Page: page, Limit: limit, Filters: filters}
			if len(args) > 0 {
				q.Search = args[0]
			}

			result, err := app.Client.SearchInvestors(ctx, q)
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout(), "ID", "NAME", "FIRM", "TYPE", "SECTORS", "FIT")
			for _, inv := range result.Investors {
				fit := "-"
				if inv.PortfolioFit != nil {
					fit = fmt.Sprintf("%.0f%%", *inv.PortfolioFit*100)
				}
				row(w, inv.ID.String(), inv.Name, dash(inv.Firm), dash(inv.FirmType), dash(strings.Join(inv.Sectors, ", ")), fit)
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d, %d investors total\n", result.Page, result.Total)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&filters.FirmTypes, "firm-type", nil, "firm types to include")
	cmd.Flags().StringSliceVar(&filters.Sectors, "sector", nil, "sectors to include")
	cmd.Flags().StringSliceVar(&filters.AUM, "aum", nil, "AUM buckets to include")
	cmd.Flags().StringSliceVar(&filters.BuySell, "buy-sell", nil, "buy/sell side to include")
	cmd.Flags().StringSliceVar(&filters.CustomerIDs, "company", nil, "company ids to match against")
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	cmd.Flags().IntVar(&limit, "limit", 0, "results per page (default: page_size)")
	cmd.Flags().BoolVar(&saved, "saved", false, "apply the saved company filter")

	return cmd
}

func newListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage outreach lists",
	}

	cmd.AddCommand(
		newListShowCmd(app),
		newListAddCmd(app),
		newListRemoveCmd(app),
		newListClearCmd(app),
	)
	return cmd
}

// companyFilter resolves --company, falling back to the saved filter when
// saved is set.
func companyFilter(ctx context.Context, app *App, companies []string, saved bool) ([]models.ID, error) {
	if len(companies) > 0 || !saved {
		return toIDs(companies), nil
	}
	stored, _, err := app.Prefs.Load(ctx)
	if err != nil {
		return nil, err
	}
	return stored.CompanyIDs(), nil
}

func newListShowCmd(app *App) *cobra.Command {
	var (
		companies []string
		saved     bool
	)

	cmd := &cobra.Command{
		Use:   "show <list>",
		Short: "Show the rows of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lt, err := parseListType(args[0])
			if err != nil {
				return err
			}
			if err := app.open(ctx); err != nil {
				return err
			}
			ids, err := companyFilter(ctx, app, companies, saved)
			if err != nil {
				return err
			}
			app.Store.SetCompanyFilter(ids)
			if err := app.Store.LoadList(ctx, lt); err != nil {
				return err
			}

			rows := app.Store.Rows()
			w := newTable(cmd.OutOrStdout(), "ROW", "INVESTOR", "NAME", "FIRM", "COMPANY", "DETAIL")
			for _, r := range rows {
				row(w, r.ID.String(), r.InvestorID.String(), dash(r.Snapshot.Name), dash(r.Snapshot.Firm),
					dash(r.Snapshot.CompanyName), dash(rowDetail(r)))
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d rows\n", len(rows))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&companies, "company", nil, "only rows for these company ids")
	cmd.Flags().BoolVar(&saved, "saved", false, "apply the saved company filter")
	return cmd
}

func rowDetail(r models.InvestorListRow) string {
	s := r.Snapshot
	switch {
	case s.Meeting != nil:
		return strings.TrimSpace(s.Meeting.Status + " " + formatWhen(s.Meeting.Datetime) + " " + s.Meeting.Link)
	case s.Followup != nil:
		return strings.TrimSpace(formatWhen(s.Followup.Date) + " " + s.Followup.Notes)
	case s.NotInterestedNote != "":
		return s.NotInterestedNote
	}
	return ""
}

func newListAddCmd(app *App) *cobra.Command {
	var companyID, companyName string

	cmd := &cobra.Command{
		Use:   "add <investor-id> <list>",
		Short: "Add an investor to a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lt, err := parseListType(args[1])
			if err != nil {
				return err
			}
			if err := app.open(ctx); err != nil {
				return err
			}
			r, err := app.Mutator.AddToList(ctx, outreach.AddRequest{
				InvestorID:  models.ID(args[0]),
				CompanyID:   models.ID(companyID),
				CompanyName: companyName,
				ListType:    lt,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s (row %s)\n", dash(r.Snapshot.Name), lt, r.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company id the outreach is for")
	cmd.Flags().StringVar(&companyName, "company-name", "", "company name for the row snapshot")
	return cmd
}

func newListRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <row-id>...",
		Short: "Remove rows by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.open(ctx); err != nil {
				return err
			}
			ids := toIDs(args)
			if len(ids) == 1 {
				if err := app.Store.RemoveSingle(ctx, ids[0]); err != nil {
					return err
				}
			} else if err := app.Store.RemoveSelected(ctx, ids); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d rows\n", len(ids))
			return nil
		},
	}
}

func newListClearCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear <list>",
		Short: "Remove every row of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lt, err := parseListType(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("clearing %s cannot be undone; pass --yes to confirm", lt)
			}
			if err := app.open(ctx); err != nil {
				return err
			}
			if err := app.Store.RemoveAllInList(ctx, lt); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", lt)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the removal")
	return cmd
}

func newCountsCmd(app *App) *cobra.Command {
	var (
		companies []string
		saved     bool
	)

	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Show the size of every list",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.open(ctx); err != nil {
				return err
			}
			ids, err := companyFilter(ctx, app, companies, saved)
			if err != nil {
				return err
			}
			app.Store.SetCompanyFilter(ids)
			app.Store.RefreshCounts(ctx)
			fmt.Fprint(cmd.OutOrStdout(), viz.RenderCounts(app.Store.DisplayCounts()))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&companies, "company", nil, "count only rows for these company ids")
	cmd.Flags().BoolVar(&saved, "saved", false, "apply the saved company filter")
	return cmd
}

// ABOUTME: Inspect the local journal of optimistic list mutations
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMutationsCmd(app *App) *cobra.Command {
	var (
		state string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "mutations",
		Short: "Show recent optimistic mutations and how they settled",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.openDB(); err != nil {
				return err
			}
			records, err := app.Mutations.Recent(cmd.Context(), state, limit)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "WHEN", "KIND", "LIST", "INVESTOR", "STATE", "SERVER ID", "ERROR")
			for _, r := range records {
				row(w, r.UpdatedAt.Local().Format("2006-01-02 15:04:05"), r.Kind, r.ListType, r.InvestorID,
					r.State, dash(r.ServerID), dash(r.ErrorMessage))
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d mutations\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "pending, confirmed or rolled_back")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records")
	return cmd
}

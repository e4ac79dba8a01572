// ABOUTME: User administration and investor record commands
// ABOUTME: Forms are checked against the required-field tables before any request
package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confideleapcrm/irdesk/models"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage desk users",
	}

	list := &cobra.Command{
		Use:   "list [query]",
		Short: "List users",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.open(ctx); err != nil {
				return err
			}
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			users, err := app.Client.ListUsers(ctx, query)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "NAME", "EMAIL", "ROLE", "ACTIVE")
			for _, u := range users {
				row(w, u.ID.String(), u.Name, u.Email, dash(u.Role), fmt.Sprint(u.Active))
			}
			return w.Flush()
		},
	}

	var in models.UserInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := models.ValidateUser(in, false); err != nil {
				return err
			}
			if err := app.open(ctx); err != nil {
				return err
			}
			u, err := app.Client.CreateUser(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.Name, u.ID)
			return nil
		},
	}
	add.Flags().StringVar(&in.Name, "name", "", "full name")
	add.Flags().StringVar(&in.Email, "email", "", "email address")
	add.Flags().StringVar(&in.Role, "role", "", "role: "+strings.Join(models.UserRoles, ", "))
	add.Flags().StringVar(&in.Password, "password", "", "initial password")

	var (
		edit   models.UserInput
		active string
	)
	update := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if active != "" {
				v := active == "true" || active == "yes"
				edit.Active = &v
			}
			if err := models.ValidateUser(edit, true); err != nil {
				return err
			}
			if err := app.open(ctx); err != nil {
				return err
			}
			u, err := app.Client.UpdateUser(ctx, models.ID(args[0]), edit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user %s (%s)\n", u.Name, u.ID)
			return nil
		},
	}
	update.Flags().StringVar(&edit.Name, "name", "", "full name")
	update.Flags().StringVar(&edit.Email, "email", "", "email address")
	update.Flags().StringVar(&edit.Role, "role", "", "role")
	update.Flags().StringVar(&active, "active", "", "true or false")

	cmd.AddCommand(list, add, update)
	return cmd
}

func newInvestorsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "investors",
		Short: "Manage investor records",
	}

	var (
		inv     models.Investor
		sectors []string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an investor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inv.Sectors = sectors
			if err := models.ValidateInvestor(inv); err != nil {
				return err
			}
			if err := app.open(ctx); err != nil {
				return err
			}
			created, err := app.Client.CreateInvestor(ctx, inv)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created investor %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	add.Flags().StringVar(&inv.Name, "name", "", "investor name")
	add.Flags().StringVar(&inv.Email, "email", "", "email address")
	add.Flags().StringVar(&inv.Firm, "firm", "", "firm name")
	add.Flags().StringVar(&inv.FirmType, "firm-type", "", "firm type")
	add.Flags().StringVar(&inv.Phone, "phone", "", "phone number")
	add.Flags().StringVar(&inv.City, "city", "", "city")
	add.Flags().StringVar(&inv.Country, "country", "", "country")
	add.Flags().StringSliceVar(&sectors, "sector", nil, "sectors")

	var (
		mapping map[string]string
		csvPath string
	)
	check := &cobra.Command{
		Use:   "check-mapping",
		Short: "Check a bulk-import column mapping covers the required fields",
		Example: "  irdesk investors check-mapping --map name=\"Full Name\" --map email=Email --map firm=Company --csv investors.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := models.ValidateImportMapping(mapping); err != nil {
				return err
			}
			if csvPath != "" {
				if err := checkColumns(csvPath, mapping); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Mapping covers every required field")
			return nil
		},
	}
	check.Flags().StringToStringVar(&mapping, "map", nil, "field=column pairs")
	check.Flags().StringVar(&csvPath, "csv", "", "CSV file whose header the columns must exist in")

	cmd.AddCommand(add, check)
	return cmd
}

// checkColumns verifies that every mapped column is in the CSV header.
func checkColumns(path string, mapping map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	var missing []string
	for field, column := range mapping {
		if !slices.Contains(header, strings.TrimSpace(column)) {
			missing = append(missing, fmt.Sprintf("%s (%q)", field, column))
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("columns not in %s: %s", path, strings.Join(missing, ", "))
	}
	return nil
}

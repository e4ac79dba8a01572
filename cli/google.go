// ABOUTME: Local Google account connection for creating Meet links
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confideleapcrm/irdesk/gcal"
)

func newGoogleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "google",
		Short: "Manage the local Google Calendar connection",
	}

	connect := &cobra.Command{
		Use:   "connect",
		Short: "Authorize irdesk to create events in your Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := gcal.NewOAuthConfig(app.Config.Google)
			if err != nil {
				return err
			}
			file := gcal.TokenFile{Path: gcal.DefaultTokenPath()}
			if err := gcal.Connect(cmd.Context(), conf, file, cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Google connected; token saved to %s\n", file.Path)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether a Google token is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !app.Config.GoogleConfigured() {
				fmt.Fprintln(out, "Google OAuth credentials are not configured")
				return nil
			}
			token, err := gcal.TokenFile{Path: gcal.DefaultTokenPath()}.Load()
			if err != nil {
				fmt.Fprintln(out, err)
				return nil
			}
			fmt.Fprintf(out, "Connected (token expires %s)\n", token.Expiry.Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.AddCommand(connect, status)
	return cmd
}

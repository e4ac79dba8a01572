// ABOUTME: Root cobra command and process entry for irdesk
// ABOUTME: Global flags, config loading before each command and error rendering
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree against app.
func NewRootCmd(app *App, version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "irdesk",
		Short:         "Investor-relations targeting desk",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load()
		},
	}

	root.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "path to config file (default: $XDG_CONFIG_HOME/irdesk/config.yaml)")
	root.PersistentFlags().BoolVarP(&app.Debug, "debug", "D", false, "enable debug logging")

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newSearchCmd(app),
		newListCmd(app),
		newCountsCmd(app),
		newMeetingCmd(app),
		newFollowupCmd(app),
		newOutcomeCmd(app),
		newActivityCmd(app),
		newPrefsCmd(app),
		newUsersCmd(app),
		newInvestorsCmd(app),
		newGoogleCmd(app),
		newVizCmd(app),
		newTUICmd(app),
		newMCPCmd(app, version),
		newMutationsCmd(app),
	)
	return root
}

// Execute runs the CLI and returns the exit code.
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &App{}
	defer func() { _ = app.Close() }()

	root := NewRootCmd(app, version)
	if err := root.ExecuteContext(ctx); err != nil {
		app.reportError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}

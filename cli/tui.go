// ABOUTME: Interactive targeting view command
package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/confideleapcrm/irdesk/tui"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive targeting view",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.open(ctx); err != nil {
				return err
			}

			model := tui.NewModel(tui.Deps{
				Store:     app.Store,
				Mutator:   app.Mutator,
				Companies: app.Client,
				Activity:  app.Client,
				Directory: app.Directory,
				Prefs:     app.Prefs,
				Debounce:  app.Config.SearchDebounce,
				Logger:    app.Logger,
			})
			defer model.Close()

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			model.SetSender(p.Send)
			_, err := p.Run()
			return err
		},
	}
}

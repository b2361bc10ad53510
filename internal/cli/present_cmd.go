package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// ErrNotInteractive is returned by commands that need a terminal.
var ErrNotInteractive = errors.New("present needs an interactive terminal (try generate --summary -)")

func newPresentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "present [source]...",
		Short: "Present a deck in the terminal, expanding slides on demand",
		Long: "Generates a deck from the given sources (or shows the current session deck) " +
			"and opens an interactive walkthrough. Visuals fill in while you browse.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return ErrNotInteractive
			}
			ctx := cmdContext(cmd)

			views, cancel := app.Studio.Subscribe()
			defer cancel()

			m := newPresentModel(ctx, app.Studio, views)
			if len(args) > 0 {
				m.startup = m.generateCmd(args)
			}
			_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}

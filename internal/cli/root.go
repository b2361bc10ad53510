package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/bananadeck/internal/service"
)

// App holds the session and process hooks used by CLI commands.
type App struct {
	Studio service.StudioService

	// Serve runs the HTTP surface until ctx is cancelled.
	Serve func(ctx context.Context, addr string) error
	// DefaultAddr is used when serve runs without --addr.
	DefaultAddr string

	// IsInteractive reports whether stdout is a terminal. Spinners and the
	// walkthrough are disabled when it returns false.
	IsInteractive func() bool

	Out io.Writer
	Err io.Writer
}

func (a *App) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *App) errOut() io.Writer {
	if a.Err == nil {
		return os.Stderr
	}
	return a.Err
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "bananadeck" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "bananadeck",
		Short:         "Generate, expand and present slide decks from source material",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.out())
	root.SetErr(app.errOut())

	root.AddCommand(
		newGenerateCmd(app),
		newPresentCmd(app),
		newServeCmd(app),
	)

	return root
}

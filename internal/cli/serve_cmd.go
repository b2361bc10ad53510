package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/bananadeck/internal/cli/formatter"
	"github.com/alexanderramin/bananadeck/internal/contract"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var sources []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the studio over HTTP and websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Serve == nil {
				return errors.New("serve is not configured")
			}
			ctx := cmdContext(cmd)
			if addr == "" {
				addr = app.DefaultAddr
			}

			if len(sources) > 0 {
				resp, err := app.Studio.Generate(ctx, contract.NewGenerateRequest(sources...))
				if err != nil {
					return err
				}
				fmt.Fprintf(app.out(), "Generated %q (%s), filling visuals in the background.\n",
					resp.Title, formatter.Plural(resp.SlideCount, "slide"))
			}

			fmt.Fprintln(app.out(), formatter.Dim("Listening on http://"+addr))
			return app.Serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to BANANADECK_ADDR)")
	cmd.Flags().StringArrayVar(&sources, "source", nil, "Generate a deck from this source before serving (repeatable)")

	return cmd
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/bananadeck/internal/cli/formatter"
	"github.com/alexanderramin/bananadeck/internal/contract"
	"github.com/alexanderramin/bananadeck/internal/domain"
)

// expandFlag is a parsed --expand value: a 1-based main-deck slide number and a lens.
type expandFlag struct {
	Slide int
	Lens  domain.Lens
}

func parseExpandFlag(s string) (expandFlag, error) {
	num, lens, ok := strings.Cut(s, ":")
	if !ok {
		return expandFlag{}, fmt.Errorf("invalid --expand %q (expected <slide>:<lens>)", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n < 1 {
		return expandFlag{}, fmt.Errorf("invalid slide number in --expand %q", s)
	}
	l, err := domain.ParseLens(lens)
	if err != nil {
		return expandFlag{}, err
	}
	return expandFlag{Slide: n, Lens: l}, nil
}

func newGenerateCmd(app *App) *cobra.Command {
	var summaryPath string
	var expands []string

	cmd := &cobra.Command{
		Use:   "generate <source>...",
		Short: "Generate a deck from source references and fill every visual",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]expandFlag, 0, len(expands))
			for _, e := range expands {
				f, err := parseExpandFlag(e)
				if err != nil {
					return err
				}
				parsed = append(parsed, f)
			}
			return runGenerate(cmdContext(cmd), app, args, parsed, summaryPath)
		},
	}

	cmd.Flags().StringVar(&summaryPath, "summary", "", "Write a markdown summary to this file (\"-\" for stdout)")
	cmd.Flags().StringArrayVar(&expands, "expand", nil, "Expand a slide after generation, as <slide>:<lens> (repeatable)")

	return cmd
}

func runGenerate(ctx context.Context, app *App, sources []string, expands []expandFlag, summaryPath string) error {
	out := app.out()

	stop := app.startProgress("Generating structure")
	req := contract.NewGenerateRequest(sources...)
	req.Wait = true
	resp, err := app.Studio.Generate(ctx, req)
	if err != nil {
		stop()
		return err
	}

	deck := app.Studio.Snapshot()
	var expandSums []string
	for _, e := range expands {
		if e.Slide > len(deck.Slides) {
			stop()
			return fmt.Errorf("--expand: deck has %s", formatter.Plural(len(deck.Slides), "slide"))
		}
		target := deck.Slides[e.Slide-1]
		er, err := app.Studio.Expand(ctx, contract.ExpandRequest{
			SlideID: target.ID,
			Lens:    string(e.Lens),
			Wait:    true,
		})
		if err != nil {
			stop()
			return err
		}
		if er.Summary != nil {
			expandSums = append(expandSums, fmt.Sprintf("%s of %q: %s",
				e.Lens.Label(), target.Title, formatter.FormatFillSummary(er.Summary)))
		}
	}
	stop()

	outline := app.Studio.Outline()
	fmt.Fprint(out, formatter.FormatOutline(outline))
	if resp.Summary != nil {
		fmt.Fprintln(out, formatter.FormatFillSummary(resp.Summary))
	}
	for _, s := range expandSums {
		fmt.Fprintln(out, s)
	}

	if summaryPath == "" {
		return nil
	}
	return writeSummary(out, summaryPath, formatter.FormatMarkdown(outline))
}

func writeSummary(out io.Writer, path, md string) error {
	if path == "-" {
		_, err := io.WriteString(out, md)
		return err
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	fmt.Fprintln(out, formatter.Dim("Summary written to "+path))
	return nil
}

// startProgress shows a spinner that follows the published progress until
// the returned stop func runs. It is a no-op when output is not a terminal.
func (a *App) startProgress(initial string) (stop func()) {
	if !a.interactive() {
		return func() {}
	}
	spin := formatter.NewSpinner(a.errOut(), initial)
	views, cancel := a.Studio.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for v := range views {
			if v.Progress.Phase != "" {
				spin.SetMessage(formatter.ProgressLine(v.Progress, 20))
			}
		}
	}()
	spin.Start()
	return func() {
		cancel()
		<-done
		spin.Stop()
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amatiych/llm-work/pkg/render"
)

type replayOptions struct {
	fund      string
	theme     string
	outputDir string
}

func newReplayCmd(root *rootOptions) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <plan>",
		Short: "Regenerate a report from a saved plan",
		Long: `Replay a saved plan against the fund's current data without the model.
The fund defaults to the one the plan was recorded for; --theme rebrands the
report for another client.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.fund, "fund", "f", "", "replay against another fund")
	cmd.Flags().StringVarP(&opts.theme, "theme", "t", "", "override the recorded theme")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for the rendered document (defaults to render.output_dir)")

	return cmd
}

func runReplay(cmd *cobra.Command, root *rootOptions, opts *replayOptions, name string) error {
	a, err := root.open()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := a.planStore()
	if err != nil {
		return err
	}
	p, err := store.Load(ctx, name)
	if err != nil {
		return err
	}

	replayer, err := a.replayer()
	if err != nil {
		return err
	}
	res, err := replayer.Replay(ctx, p, opts.fund, opts.theme)
	if err != nil {
		return err
	}

	dir := opts.outputDir
	if dir == "" {
		dir = a.cfg.Render.OutputDir
	}
	path, err := render.WriteDocument(dir, render.DocumentName(name, res.FundID, time.Now()), res.Format, res.Document)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	snap := res.State.Snapshot()
	fmt.Fprintf(out, "Replayed %s for %s (%d steps, %s)\n", name, res.FundID, len(res.Log), res.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Title: %s\n", snap.Title)
	fmt.Fprintf(out, "Theme: %s\n", snap.ThemeID)
	fmt.Fprintf(out, "Document: %s\n", path)
	return nil
}

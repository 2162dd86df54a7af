package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amatiych/llm-work/internal/observability"
	"github.com/amatiych/llm-work/pkg/orchestrator"
	"github.com/amatiych/llm-work/pkg/render"
)

const defaultInstruction = "Prepare a quarterly report for this fund: review performance and risk, include the most relevant charts with commentary, then finalize the report."

type runOptions struct {
	fund        string
	instruction string
	theme       string
	save        string
	outputDir   string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a report with the model",
		Long: `Run a live session: the model builds the report for one fund through the
report tools. A completed report is rendered to the output directory and,
with --save, its tool calls are stored as a named plan for replay.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.fund, "fund", "f", "", "fund id to report on")
	cmd.Flags().StringVarP(&opts.instruction, "instruction", "i", defaultInstruction, "instruction for the model")
	cmd.Flags().StringVarP(&opts.theme, "theme", "t", "", "preselect a client theme")
	cmd.Flags().StringVar(&opts.save, "save", "", "save the recorded plan under this name")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for the rendered document (defaults to render.output_dir)")
	_ = cmd.MarkFlagRequired("fund")

	return cmd
}

func runRun(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	a, err := root.open()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}

	res, err := orch.Run(ctx, orchestrator.Request{
		FundID:      opts.fund,
		Instruction: opts.instruction,
		ThemeID:     opts.theme,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printRunSummary(out, res)
	if res.Status != orchestrator.StatusComplete {
		return fmt.Errorf("run %s: %s", res.Status, res.Message)
	}

	doc, err := a.renderDocument(ctx, res.FundID, res.State)
	if err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	dir := opts.outputDir
	if dir == "" {
		dir = a.cfg.Render.OutputDir
	}
	path, err := render.WriteDocument(dir, render.DocumentName("report", res.FundID, time.Now()), a.docs.Format(), doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Document: %s\n", path)

	if opts.save != "" {
		store, err := a.planStore()
		if err != nil {
			return err
		}
		err = store.Save(ctx, opts.save, res.Plan)
		observability.RecordPlanAudit(ctx, "saved", opts.save, err == nil, map[string]interface{}{
			"run_id":  res.RunID,
			"fund_id": res.FundID,
		})
		if err != nil {
			return fmt.Errorf("failed to save plan: %w", err)
		}
		fmt.Fprintf(out, "Plan saved as %s (%d steps)\n", opts.save, res.Plan.Len())
	}

	return nil
}

func printRunSummary(out io.Writer, res *orchestrator.RunResult) {
	fmt.Fprintf(out, "Run %s: %s after %d turns (%s)\n", res.RunID, res.Status, res.Turns, res.Duration.Round(time.Millisecond))
	if res.Message != "" {
		fmt.Fprintf(out, "  %s\n", res.Message)
	}

	snap := res.State.Snapshot()
	if snap.Title != "" {
		fmt.Fprintf(out, "Title: %s\n", snap.Title)
	}
	fmt.Fprintf(out, "Theme: %s\n", snap.ThemeID)
	fmt.Fprintf(out, "Sections: %d, charts: %d, tool calls: %d\n", len(snap.Sections), len(snap.Charts), len(res.Log))
	fmt.Fprintf(out, "Tokens: %d in / %d out\n", res.Usage.InputTokens, res.Usage.OutputTokens)
}

package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amatiych/llm-work/pkg/schedule"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scheduler status",
		Long:  `Show whether the scheduler is running and when each configured job fires next.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, root)
		},
	}
}

func runStatus(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pidFile := getPIDFilePath(cfg.DataDir)

	if !isRunning(pidFile) {
		fmt.Fprintln(out, "Status: stopped")
	} else {
		pid, err := readPID(pidFile)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Status: running")
		fmt.Fprintf(out, "PID: %d\n", pid)
		if info, err := os.Stat(pidFile); err == nil {
			fmt.Fprintf(out, "Uptime: %s\n", formatDuration(time.Since(info.ModTime())))
		}
	}

	printJobs(out, cfg.Schedules, time.Now())
	return nil
}

func printJobs(out io.Writer, jobs []schedule.Job, now time.Time) {
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No scheduled jobs.")
		return
	}
	fmt.Fprintln(out, "Jobs:")
	for _, job := range jobs {
		next := "invalid schedule"
		if t, err := job.NextRun(now); err == nil {
			next = t.Format(time.RFC3339)
		}
		fmt.Fprintf(out, "- %s: plan %s (%s) next %s\n", job.Name, job.Plan, job.Schedule, next)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

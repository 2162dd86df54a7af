package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newScheduleCmd(root *rootOptions) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect and trigger scheduled replays",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured jobs and their next run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			printJobs(cmd.OutOrStdout(), cfg.Schedules, time.Now())
			return nil
		},
	}

	runCmd := &cobra.Command{
		Use:   "run <job>",
		Short: "Run one job now, outside its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open()
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.scheduler()
			if err != nil {
				return err
			}
			defer svc.Stop(cmd.Context())

			if err := svc.RunNow(cmd.Context(), args[0]); err != nil {
				return err
			}
			st, _ := svc.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s finished in %s\nDocument: %s\n",
				args[0], st.State.LastDuration.Round(time.Millisecond), st.State.LastOutput)
			return nil
		},
	}

	scheduleCmd.AddCommand(listCmd, runCmd)
	return scheduleCmd
}

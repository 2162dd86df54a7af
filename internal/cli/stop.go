package cli

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newStopCmd(root *rootOptions) *cobra.Command {
	var timeout int

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the report scheduler",
		Long: `Stop the scheduler gracefully.
Sends SIGTERM and waits for running replays to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, root, time.Duration(timeout)*time.Second)
		},
	}

	cmd.Flags().IntVar(&timeout, "timeout", 30, "timeout in seconds to wait for the scheduler to stop")
	return cmd
}

func runStop(cmd *cobra.Command, root *rootOptions, timeout time.Duration) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pidFile := getPIDFilePath(cfg.DataDir)
	if !isRunning(pidFile) {
		os.Remove(pidFile)
		return fmt.Errorf("scheduler is not running")
	}

	if err := signalScheduler(pidFile, syscall.SIGTERM); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !isRunning(pidFile) {
			fmt.Fprintln(out, "Scheduler stopped successfully")
			os.Remove(pidFile)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Fprintln(out, "Timeout reached, sending SIGKILL...")
	if err := signalScheduler(pidFile, syscall.SIGKILL); err != nil {
		return err
	}

	os.Remove(pidFile)
	fmt.Fprintln(out, "Scheduler killed")
	return nil
}

func signalScheduler(pidFile string, sig syscall.Signal) error {
	pid, err := readPID(pidFile)
	if err != nil {
		return err
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(sig); err != nil {
		return fmt.Errorf("failed to send %s: %w", sig, err)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newStartCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the report scheduler",
		Long: `Start the scheduler in the foreground. Saved plans listed under
"schedules" are replayed on their cron expressions until the process receives
SIGINT or SIGTERM. Theme files are reloaded when they change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, root)
		},
	}
}

func runStart(cmd *cobra.Command, root *rootOptions) error {
	a, err := root.open()
	if err != nil {
		return err
	}
	defer a.Close()

	pidFile := getPIDFilePath(a.cfg.DataDir)
	if isRunning(pidFile) {
		return fmt.Errorf("scheduler is already running (PID file: %s)", pidFile)
	}

	svc, err := a.scheduler()
	if err != nil {
		return err
	}

	if err := writePIDFile(pidFile); err != nil {
		return err
	}
	defer os.Remove(pidFile)

	if a.cfg.ThemesDir != "" {
		watcher, err := a.themes.Watch()
		if err != nil {
			a.logger.Warn().Err(err).Str("dir", a.cfg.ThemesDir).Msg("Theme watcher disabled")
		} else {
			defer watcher.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	svc.Start()
	fmt.Fprintf(out, "Scheduler started with %d jobs (PID %d)\n", len(svc.List()), os.Getpid())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("scheduler did not stop cleanly: %w", err)
	}
	fmt.Fprintln(out, "Scheduler stopped")
	return nil
}

func getPIDFilePath(dataDir string) string {
	return filepath.Join(dataDir, "fundreport.pid")
}

func writePIDFile(pidFile string) error {
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func readPID(pidFile string) (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

func isRunning(pidFile string) bool {
	pid, err := readPID(pidFile)
	if err != nil {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds, so probe with signal 0
	return process.Signal(syscall.Signal(0)) == nil
}

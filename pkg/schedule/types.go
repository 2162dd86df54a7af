package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amatiych/llm-work/pkg/plan"
)

// Job regenerates a report from a saved plan on a cron schedule.
type Job struct {
	Name      string `json:"name" mapstructure:"name"`
	Schedule  string `json:"schedule" mapstructure:"schedule"` // 5-field cron expression or descriptor such as @quarterly
	TZ        string `json:"tz,omitempty" mapstructure:"tz"`
	Plan      string `json:"plan" mapstructure:"plan"`
	FundID    string `json:"fund_id,omitempty" mapstructure:"fund_id"`
	Theme     string `json:"theme,omitempty" mapstructure:"theme"`
	OutputDir string `json:"output_dir,omitempty" mapstructure:"output_dir"`
}

// JobState tracks the runtime state of a job
type JobState struct {
	NextRunAt         *time.Time    `json:"next_run_at,omitempty"`
	RunningSince      *time.Time    `json:"running_since,omitempty"`
	LastRunAt         *time.Time    `json:"last_run_at,omitempty"`
	LastStatus        string        `json:"last_status,omitempty"` // "ok" or "error"
	LastError         string        `json:"last_error,omitempty"`
	LastDuration      time.Duration `json:"last_duration,omitempty"`
	LastOutput        string        `json:"last_output,omitempty"`
	ConsecutiveErrors int           `json:"consecutive_errors,omitempty"`
}

// Status is a job with its current state.
type Status struct {
	Job   Job      `json:"job"`
	State JobState `json:"state"`
}

const (
	statusOK    = "ok"
	statusError = "error"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// cronExpr returns the expression handed to the cron scheduler, carrying the
// job's timezone.
func (j Job) cronExpr() string {
	if j.TZ != "" {
		return "CRON_TZ=" + j.TZ + " " + j.Schedule
	}
	return j.Schedule
}

// Validate checks the job definition and its schedule.
func (j Job) Validate() error {
	if err := plan.ValidateName(j.Name); err != nil {
		return fmt.Errorf("job name: %w", err)
	}
	if err := plan.ValidateName(j.Plan); err != nil {
		return fmt.Errorf("job %s plan: %w", j.Name, err)
	}
	if strings.TrimSpace(j.Schedule) == "" {
		return errors.New("schedule is required")
	}
	if j.TZ != "" {
		if _, err := time.LoadLocation(j.TZ); err != nil {
			return fmt.Errorf("invalid timezone: %w", err)
		}
	}
	if _, err := parser.Parse(j.cronExpr()); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// NextRun returns the first activation after from.
func (j Job) NextRun(from time.Time) (time.Time, error) {
	sched, err := parser.Parse(j.cronExpr())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	return sched.Next(from), nil
}

package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/amatiych/llm-work/internal/observability"
)

// RunFunc executes one job and returns the path of what it produced.
type RunFunc func(ctx context.Context, job Job) (string, error)

// Config configures a Service.
type Config struct {
	Jobs   []Job
	Run    RunFunc
	Logger zerolog.Logger
}

type entry struct {
	job   Job
	id    cron.EntryID
	state JobState
}

// Service runs scheduled replays. A job never overlaps with itself: a tick
// that fires while the previous run is still going is skipped.
type Service struct {
	cron   *cron.Cron
	run    RunFunc
	logger zerolog.Logger

	mu      sync.RWMutex
	jobs    map[string]*entry
	started bool
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService validates and registers cfg.Jobs. Nothing runs until Start.
func NewService(cfg Config) (*Service, error) {
	observability.EnsureRegistered()

	if cfg.Run == nil {
		return nil, errors.New("run func is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cronLogger{logger: cfg.Logger}),
		),
		run:    cfg.Run,
		logger: cfg.Logger,
		jobs:   make(map[string]*entry),
		ctx:    ctx,
		cancel: cancel,
	}

	for _, job := range cfg.Jobs {
		if err := s.Add(job); err != nil {
			cancel()
			return nil, err
		}
	}
	return s, nil
}

// Add registers a job. Names are unique.
func (s *Service) Add(job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return errors.New("service is stopped")
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already exists", job.Name)
	}

	e := &entry{job: job}
	id, err := s.cron.AddFunc(job.cronExpr(), func() { s.execute(s.ctx, job.Name) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
	}
	e.id = id
	if next, err := job.NextRun(time.Now()); err == nil {
		e.state.NextRunAt = &next
	}
	s.jobs[job.Name] = e

	s.logger.Info().
		Str("job", job.Name).
		Str("schedule", job.Schedule).
		Str("plan", job.Plan).
		Msg("Job scheduled")
	return nil
}

// Remove unschedules a job.
func (s *Service) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job not found: %s", name)
	}
	s.cron.Remove(e.id)
	delete(s.jobs, name)

	s.logger.Info().Str("job", name).Msg("Job removed")
	return nil
}

// List returns every job with its state, ordered by name.
func (s *Service) List() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Status, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, Status{Job: e.job, State: e.state})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job.Name < out[j].Job.Name })
	return out
}

// Get returns one job's status.
func (s *Service) Get(name string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.jobs[name]
	if !ok {
		return Status{}, false
	}
	return Status{Job: e.job, State: e.state}, true
}

// RunNow executes a job synchronously outside its schedule.
func (s *Service) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	_, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job not found: %s", name)
	}
	return s.execute(ctx, name)
}

// Start begins firing jobs on their schedules.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
}

// Stop halts the schedule, cancels running jobs and waits for them to
// return or for ctx to expire.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.Info().Msg("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) execute(ctx context.Context, name string) error {
	s.mu.Lock()
	e, exists := s.jobs[name]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("job not found: %s", name)
	}
	if e.state.RunningSince != nil {
		s.mu.Unlock()
		s.logger.Debug().Str("job", name).Msg("Job already running, skipping execution")
		return fmt.Errorf("job %s is already running", name)
	}
	start := time.Now()
	e.state.RunningSince = &start
	job := e.job
	s.mu.Unlock()

	logger := s.logger.With().Str("job", name).Str("plan", job.Plan).Logger()
	logger.Info().Msg("Executing job")

	output, err := s.run(ctx, job)
	duration := time.Since(start)
	observability.RecordScheduledReplay(err == nil)
	observability.RecordScheduleAudit(ctx, name, job.Plan, err == nil, map[string]interface{}{
		"output": output,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	e.state.RunningSince = nil
	e.state.LastRunAt = &start
	e.state.LastDuration = duration
	if next, nextErr := job.NextRun(time.Now()); nextErr == nil {
		e.state.NextRunAt = &next
	}

	if err != nil {
		e.state.LastStatus = statusError
		e.state.LastError = err.Error()
		e.state.ConsecutiveErrors++
		logger.Error().
			Err(err).
			Int("consecutive_errors", e.state.ConsecutiveErrors).
			Msg("Job execution failed")
		return err
	}

	e.state.LastStatus = statusOK
	e.state.LastError = ""
	e.state.LastOutput = output
	e.state.ConsecutiveErrors = 0
	logger.Info().
		Str("output", output).
		Dur("duration", duration).
		Msg("Job execution completed")
	return nil
}

// cronLogger forwards the scheduler's own messages to zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

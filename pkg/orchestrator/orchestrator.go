package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/amatiych/llm-work/internal/observability"
	"github.com/amatiych/llm-work/internal/tracing"
	"github.com/amatiych/llm-work/pkg/catalog"
	"github.com/amatiych/llm-work/pkg/llm"
	"github.com/amatiych/llm-work/pkg/plan"
	"github.com/amatiych/llm-work/pkg/report"
	"github.com/amatiych/llm-work/pkg/toolexecutor"
)

// Status is the terminal status of a run.
type Status string

const (
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
	StatusAborted    Status = "aborted"
)

// Phase is the loop's position in Idle -> Running -> Terminated.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRunning    Phase = "running"
	PhaseTerminated Phase = "terminated"
)

// Request starts a live run.
type Request struct {
	FundID      string
	Instruction string
	// ThemeID preselects a theme. The model may still call set_theme.
	ThemeID string
}

// RunResult is returned for every run that got past validation, whatever
// its status. State and Log are usable even when the run is incomplete.
type RunResult struct {
	RunID    string
	FundID   string
	Status   Status
	State    *report.State
	Log      []report.ToolCall
	Plan     *plan.Plan
	Turns    int
	Usage    llm.Usage
	Message  string
	Duration time.Duration
}

// Orchestrator drives the model through the tool catalog. It holds no
// per-run state; concurrent Runs are independent.
type Orchestrator struct {
	cfg    Config
	logger zerolog.Logger
}

// New validates cfg and creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	observability.EnsureRegistered()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid orchestrator config: %w", err)
	}
	return &Orchestrator{cfg: cfg, logger: cfg.Logger}, nil
}

// run is the exclusively owned state of one live run.
type run struct {
	id       string
	phase    Phase
	exec     *toolexecutor.Executor
	state    *report.State
	log      []report.ToolCall
	messages []llm.Message
	usage    llm.Usage
	turns    int
	seq      int

	finalizeRejections int
	logger             zerolog.Logger
}

func (r *run) transition(to Phase) {
	r.logger.Debug().Str("from", string(r.phase)).Str("to", string(to)).Msg("Run phase changed")
	r.phase = to
}

// Run executes one live run. An error is returned only when the run could
// not start (bad request, unknown fund or theme); every started run ends in
// a RunResult.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*RunResult, error) {
	if strings.TrimSpace(req.FundID) == "" {
		return nil, errors.New("fund id is required")
	}

	ctx, runID := tracing.NewRunContext(ctx, req.FundID)
	ctx, span := tracing.StartSpan(ctx, "orchestrator.run",
		attribute.String("provider", o.cfg.Provider.Provider()),
	)
	logger := tracing.LoggerFromContext(ctx, o.logger)

	r, err := o.start(ctx, runID, req, logger)
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}

	started := time.Now()
	res := o.loop(ctx, r)
	res.Duration = time.Since(started)
	r.transition(PhaseTerminated)

	observability.RecordRun(o.cfg.Provider.Provider(), string(res.Status), res.Turns, res.Duration)
	observability.RecordRunAudit(ctx, runID, req.FundID, string(res.Status), map[string]interface{}{
		"turns":    res.Turns,
		"calls":    len(res.Log),
		"recorded": res.Plan != nil,
	})
	span.SetAttributes(
		attribute.String("status", string(res.Status)),
		attribute.Int("turns", res.Turns),
	)
	tracing.EndSpan(span, nil)

	logger.Info().
		Str("status", string(res.Status)).
		Int("turns", res.Turns).
		Int("calls", len(res.Log)).
		Int("sections", res.State.SectionCount()).
		Dur("duration", res.Duration).
		Str("message", res.Message).
		Msg("Run finished")

	return res, nil
}

func (o *Orchestrator) start(ctx context.Context, runID string, req Request, logger zerolog.Logger) (*run, error) {
	tools := o.cfg.Tools
	tools.FundID = req.FundID
	tools.Path = toolexecutor.PathLive
	tools.Logger = logger
	exec, err := toolexecutor.New(tools)
	if err != nil {
		return nil, err
	}

	if _, err := exec.Profile(ctx); err != nil {
		return nil, fmt.Errorf("failed to load fund %s: %w", req.FundID, err)
	}

	themeID := o.cfg.DefaultTheme
	if req.ThemeID != "" {
		if _, err := tools.Themes.Get(ctx, req.ThemeID); err != nil {
			return nil, fmt.Errorf("unknown theme %s: %w", req.ThemeID, err)
		}
		themeID = req.ThemeID
	}

	r := &run{
		id:     runID,
		phase:  PhaseIdle,
		exec:   exec,
		state:  report.NewState(themeID),
		logger: logger,
		messages: []llm.Message{
			llm.UserMessage(instructionMessage(req.FundID, req.Instruction, req.ThemeID)),
		},
	}
	return r, nil
}

func (o *Orchestrator) loop(ctx context.Context, r *run) *RunResult {
	if o.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RunTimeout)
		defer cancel()
	}

	r.transition(PhaseRunning)

	for r.turns < o.cfg.MaxTurns {
		if err := ctx.Err(); err != nil {
			return o.result(r, StatusIncomplete, fmt.Sprintf("run stopped: %v", err))
		}

		r.turns++
		resp, err := o.callModel(ctx, r)
		if err != nil {
			if ctx.Err() != nil {
				return o.result(r, StatusIncomplete, fmt.Sprintf("run stopped: %v", ctx.Err()))
			}
			return o.result(r, StatusAborted, err.Error())
		}
		r.usage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			r.logger.Debug().Int("turn", r.turns).Msg("Model replied without tool calls, nudging")
			r.messages = append(r.messages,
				llm.Message{Role: llm.RoleAssistant, Content: resp.Content},
				llm.UserMessage(nudgeMessage),
			)
			continue
		}

		o.dispatch(ctx, r, resp)

		if r.state.Terminal() {
			return o.complete(r)
		}
		if ctx.Err() != nil {
			return o.result(r, StatusIncomplete, fmt.Sprintf("run stopped: %v", ctx.Err()))
		}
		if r.finalizeRejections > o.cfg.MaxFinalizeCorrections {
			return o.result(r, StatusIncomplete,
				fmt.Sprintf("finalize_report was rejected %d times", r.finalizeRejections))
		}
	}

	return o.result(r, StatusIncomplete,
		fmt.Sprintf("turn budget of %d exhausted without a successful finalize_report", o.cfg.MaxTurns))
}

// dispatch applies the calls of one turn in the order received and queues
// one tool result per call.
func (o *Orchestrator) dispatch(ctx context.Context, r *run, resp *llm.Response) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.turn", attribute.Int("turn", r.turns))
	defer span.End()

	r.messages = append(r.messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	for _, tc := range resp.ToolCalls {
		r.seq++
		call := report.ToolCall{
			Seq:       r.seq,
			ID:        tc.ID,
			Tool:      tc.Name,
			Arguments: tc.Arguments,
		}

		var res toolexecutor.Result
		switch {
		case r.state.Terminal():
			res = r.exec.Reject(call, report.Precondition(tc.Name, report.ConstraintNotTerminal,
				"the report was finalized earlier in this turn; the call was not executed"))
		case tc.ParseError != "":
			res = r.exec.Reject(call, report.NewToolError(report.CodeInvalidArguments, tc.Name, "",
				"arguments are not valid JSON: %s", tc.ParseError))
		default:
			res = r.exec.Execute(ctx, r.state, call)
		}

		if tc.Name == string(catalog.FinalizeReport) && !res.OK() {
			r.finalizeRejections++
		}

		r.log = append(r.log, res.Call)
		r.messages = append(r.messages, llm.ToolResultMessage(tc.ID, res.Content(), !res.OK()))
	}
}

func (o *Orchestrator) complete(r *run) *RunResult {
	res := o.result(r, StatusComplete, "report finalized")

	p, err := plan.Record(r.id, r.exec.FundID(), r.log, r.state)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Run finalized but could not be recorded as a plan")
		return res
	}
	res.Plan = p
	return res
}

func (o *Orchestrator) result(r *run, status Status, message string) *RunResult {
	log := make([]report.ToolCall, len(r.log))
	for i, c := range r.log {
		log[i] = c.Clone()
	}
	return &RunResult{
		RunID:   r.id,
		FundID:  r.exec.FundID(),
		Status:  status,
		State:   r.state,
		Log:     log,
		Turns:   r.turns,
		Usage:   r.usage,
		Message: message,
	}
}

// callModel sends the conversation with retry. Each attempt gets its own
// TurnTimeout; retryable failures back off exponentially up to
// MaxTransportAttempts.
func (o *Orchestrator) callModel(ctx context.Context, r *run) (*llm.Response, error) {
	provider := o.cfg.Provider
	request := llm.Request{
		Model:        o.cfg.Model,
		SystemPrompt: systemPrompt,
		Messages:     r.messages,
		Tools:        r.exec.Catalog().Definitions(),
		Temperature:  o.cfg.Temperature,
		MaxTokens:    o.cfg.MaxTokens,
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxTransportAttempts; attempt++ {
		resp, err := o.callOnce(ctx, provider, request)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		retryable := llm.IsRetryable(err)
		observability.RecordTransportError(provider.Provider(), retryable)
		if !retryable {
			return nil, &llm.TransportError{Provider: provider.Provider(), Attempts: attempt, Err: err}
		}
		if attempt == o.cfg.MaxTransportAttempts {
			break
		}

		delay := o.cfg.backoff(attempt)
		r.logger.Info().
			Err(err).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Retrying model call after error")
		observability.RecordTransportRetry(provider.Provider())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, &llm.TransportError{
		Provider:  provider.Provider(),
		Attempts:  o.cfg.MaxTransportAttempts,
		Retryable: true,
		Err:       lastErr,
	}
}

func (o *Orchestrator) callOnce(ctx context.Context, provider llm.Provider, request llm.Request) (*llm.Response, error) {
	if o.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.TurnTimeout)
		defer cancel()
	}

	resp, err := provider.Call(ctx, request)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("provider returned an empty response")
	}
	return resp, nil
}

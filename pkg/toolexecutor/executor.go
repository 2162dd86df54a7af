package toolexecutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/amatiych/llm-work/internal/observability"
	"github.com/amatiych/llm-work/pkg/catalog"
	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/render"
	"github.com/amatiych/llm-work/pkg/report"
	"github.com/amatiych/llm-work/pkg/theme"
)

// Execution paths used as metric labels.
const (
	PathLive   = "live"
	PathReplay = "replay"
)

// Config wires an Executor to its collaborators for one fund.
type Config struct {
	FundID   string
	Funds    fund.Provider
	Charts   fund.ChartCatalog
	Themes   theme.Provider
	Renderer render.ChartRenderer
	Catalog  *catalog.Catalog
	Path     string
	Logger   zerolog.Logger
}

// Result is the outcome of one tool call.
type Result struct {
	Call   report.ToolCall
	Tool   catalog.Tool
	Output interface{}
	Err    *report.ToolError
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Content is the JSON tool result relayed to the model.
func (r Result) Content() string {
	var payload interface{} = r.Output
	if r.Err != nil {
		payload = r.Err.Payload()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error":true,"message":%q}`, err.Error())
	}
	return string(data)
}

// Executor dispatches tool calls against a report state. One executor serves
// one run; the profile is loaded once and reused so every call in the run
// sees the same data.
type Executor struct {
	cfg         Config
	prerendered map[string]report.ChartArtifact
	failed      map[string]error

	mu      sync.Mutex
	profile *fund.Profile
}

// New validates cfg and creates an executor.
func New(cfg Config) (*Executor, error) {
	if cfg.FundID == "" {
		return nil, fmt.Errorf("fund id is required")
	}
	if cfg.Funds == nil {
		return nil, fmt.Errorf("fund provider is required")
	}
	if cfg.Themes == nil {
		return nil, fmt.Errorf("theme provider is required")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("chart renderer is required")
	}
	if cfg.Catalog == nil {
		c, err := catalog.New()
		if err != nil {
			return nil, err
		}
		cfg.Catalog = c
	}
	if cfg.Path == "" {
		cfg.Path = PathLive
	}
	return &Executor{cfg: cfg}, nil
}

// WithPrerendered returns an executor that uses the given artifacts for
// generate_chart instead of calling the renderer. Charts listed in failed
// report their render error when their generate_chart call is reached, after
// the usual validation and preconditions.
func (e *Executor) WithPrerendered(artifacts map[string]report.ChartArtifact, failed map[string]error) *Executor {
	e.mu.Lock()
	profile := e.profile
	e.mu.Unlock()

	pre := make(map[string]report.ChartArtifact, len(artifacts))
	for id, a := range artifacts {
		pre[id] = a
	}
	fails := make(map[string]error, len(failed))
	for id, err := range failed {
		fails[id] = err
	}
	return &Executor{cfg: e.cfg, prerendered: pre, failed: fails, profile: profile}
}

// FundID returns the fund this executor serves.
func (e *Executor) FundID() string {
	return e.cfg.FundID
}

// Catalog returns the tool catalog in use.
func (e *Executor) Catalog() *catalog.Catalog {
	return e.cfg.Catalog
}

// Profile loads the run's fund profile once.
func (e *Executor) Profile(ctx context.Context) (*fund.Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.profile != nil {
		return e.profile, nil
	}
	p, err := e.cfg.Funds.Profile(ctx, e.cfg.FundID)
	if err != nil {
		return nil, err
	}
	e.profile = p
	return p, nil
}

// Env resolves the collaborator facts used by preconditions.
func (e *Executor) Env(ctx context.Context) (catalog.Env, error) {
	available, err := e.availableCharts(ctx)
	if err != nil {
		return catalog.Env{}, err
	}
	ids := make([]string, len(available))
	for i, c := range available {
		ids[i] = c.ID
	}
	return catalog.Env{
		AvailableCharts: ids,
		ThemeExists: func(id string) bool {
			_, err := e.cfg.Themes.Get(ctx, id)
			return err == nil
		},
	}, nil
}

func (e *Executor) availableCharts(ctx context.Context) ([]fund.ChartType, error) {
	if e.cfg.Charts != nil {
		return e.cfg.Charts.AvailableCharts(ctx, e.cfg.FundID)
	}
	p, err := e.Profile(ctx)
	if err != nil {
		return nil, err
	}
	return fund.AvailableCharts(p), nil
}

// Execute runs one tool call: lookup, argument validation, preconditions,
// handler, then state application. It never panics on bad input; every
// failure is returned as a ToolError inside the Result.
func (e *Executor) Execute(ctx context.Context, state *report.State, call report.ToolCall) Result {
	start := time.Now()
	call = call.Clone()

	output, tool, err := e.execute(ctx, state, call)
	var te *report.ToolError
	if err != nil {
		var ok bool
		if te, ok = report.AsToolError(err); !ok {
			te = &report.ToolError{
				Code:    report.CodeDataUnavailable,
				Tool:    call.Tool,
				Message: err.Error(),
				Err:     err,
			}
		}
	}
	return e.finish(start, call, tool, output, te)
}

// Reject records call as failed with te without dispatching it.
func (e *Executor) Reject(call report.ToolCall, te *report.ToolError) Result {
	tool, _ := e.cfg.Catalog.Lookup(call.Tool)
	return e.finish(time.Now(), call.Clone(), tool, nil, te)
}

func (e *Executor) finish(start time.Time, call report.ToolCall, tool catalog.Tool, output interface{}, te *report.ToolError) Result {
	res := Result{Call: call, Tool: tool}
	if te != nil {
		res.Err = te
		res.Call.Outcome = te.Outcome()
		res.Call.ErrorCode = te.Code
		res.Call.Error = te.Message
	} else {
		res.Output = output
		res.Call.Outcome = report.OutcomeOK
	}

	duration := time.Since(start)
	observability.RecordToolCall(call.Tool, e.cfg.Path, string(res.Call.Outcome), duration)

	evt := e.cfg.Logger.Debug()
	if res.Err != nil {
		evt = e.cfg.Logger.Info().Str("code", string(res.Err.Code)).Str("error", res.Err.Message)
	}
	evt.Str("tool", call.Tool).
		Int("seq", call.Seq).
		Str("path", e.cfg.Path).
		Str("outcome", string(res.Call.Outcome)).
		Dur("duration", duration).
		Msg("Tool call executed")

	return res
}

func (e *Executor) execute(ctx context.Context, state *report.State, call report.ToolCall) (interface{}, catalog.Tool, error) {
	tool, err := e.cfg.Catalog.Lookup(call.Tool)
	if err != nil {
		return nil, catalog.Tool{}, err
	}
	if err := e.cfg.Catalog.ValidateArguments(call.Tool, call.Arguments); err != nil {
		return nil, tool, err
	}

	env, err := e.Env(ctx)
	if err != nil {
		return nil, tool, dataError(call.Tool, "fund data is unavailable", err)
	}
	if err := catalog.CheckPreconditions(tool, state, call.Arguments, env); err != nil {
		return nil, tool, err
	}

	switch tool.Name {
	case catalog.AnalyzeFund:
		out, err := e.analyzeFund(ctx)
		return out, tool, err
	case catalog.ListAvailableCharts:
		out, err := e.listCharts(ctx)
		return out, tool, err
	case catalog.ListThemes:
		themes, err := e.cfg.Themes.Themes(ctx)
		if err != nil {
			return nil, tool, dataError(call.Tool, "themes are unavailable", err)
		}
		return map[string]interface{}{"themes": themes}, tool, nil
	case catalog.GenerateChart:
		artifact, err := e.chart(ctx, call)
		if err != nil {
			return nil, tool, err
		}
		return e.apply(state, tool, call, artifact)
	case catalog.AddSection, catalog.SetTheme, catalog.FinalizeReport:
		return e.apply(state, tool, call, report.ChartArtifact{})
	default:
		return nil, tool, report.NewToolError(report.CodeUnknownTool, call.Tool, "", "no handler for tool %q", call.Tool)
	}
}

func (e *Executor) apply(state *report.State, tool catalog.Tool, call report.ToolCall, artifact report.ChartArtifact) (interface{}, catalog.Tool, error) {
	m, err := catalog.BuildMutation(tool.Name, call.Arguments, artifact)
	if err != nil {
		return nil, tool, err
	}
	if err := state.Apply(m); err != nil {
		return nil, tool, err
	}
	return acknowledge(state, tool.Name, artifact), tool, nil
}

func (e *Executor) chart(ctx context.Context, call report.ToolCall) (report.ChartArtifact, error) {
	chartID := catalog.StringArg(call.Arguments, catalog.ArgChartID)
	if artifact, ok := e.prerendered[chartID]; ok {
		return artifact, nil
	}
	if err, ok := e.failed[chartID]; ok {
		return report.ChartArtifact{}, RenderFailure(chartID, err)
	}

	profile, err := e.Profile(ctx)
	if err != nil {
		return report.ChartArtifact{}, dataError(call.Tool, "fund data is unavailable", err)
	}

	start := time.Now()
	artifact, err := e.cfg.Renderer.RenderChart(ctx, chartID, call.Arguments, profile)
	observability.RecordChartRender(chartID, time.Since(start), err == nil)
	if err != nil {
		return report.ChartArtifact{}, RenderFailure(chartID, err)
	}
	if artifact.ID == "" {
		artifact.ID = chartID
	}
	return artifact, nil
}

// RenderFailure converts a renderer error into a render_failed ToolError.
func RenderFailure(chartID string, err error) *report.ToolError {
	return &report.ToolError{
		Code:    report.CodeRenderFailed,
		Tool:    string(catalog.GenerateChart),
		Message: fmt.Sprintf("chart %q could not be rendered: %v; choose a different chart", chartID, err),
		Err:     err,
	}
}

func dataError(tool, message string, err error) *report.ToolError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		message = "cancelled"
	}
	return &report.ToolError{
		Code:    report.CodeDataUnavailable,
		Tool:    tool,
		Message: fmt.Sprintf("%s: %v", message, err),
		Err:     err,
	}
}

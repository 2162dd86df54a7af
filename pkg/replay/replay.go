package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/amatiych/llm-work/internal/observability"
	"github.com/amatiych/llm-work/internal/tracing"
	"github.com/amatiych/llm-work/pkg/catalog"
	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/plan"
	"github.com/amatiych/llm-work/pkg/render"
	"github.com/amatiych/llm-work/pkg/report"
	"github.com/amatiych/llm-work/pkg/toolexecutor"
)

const (
	defaultConcurrency = 4
	defaultTimeout     = 2 * time.Minute
)

// Config wires a Replayer. Tools is a template: FundID is filled in per
// replay. Documents is optional; when set, every successful replay also
// renders the final document.
type Config struct {
	Tools             toolexecutor.Config
	Documents         render.DocumentRenderer
	RenderConcurrency int
	Timeout           time.Duration
	DefaultTheme      string
	Logger            zerolog.Logger
}

// ReplayError reports the plan entry that could not be applied. Index is
// the zero-based position in Plan.Entries.
type ReplayError struct {
	Index int
	Tool  string
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay failed at entry %d (%s): %v", e.Index, e.Tool, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

// Result is a finished replay. There is no partial result: any failure
// returns an error instead.
type Result struct {
	RunID    string
	FundID   string
	Plan     string
	State    *report.State
	Log      []report.ToolCall
	Document []byte
	Format   string
	Duration time.Duration
}

// Replayer executes stored plans without a model.
type Replayer struct {
	cfg Config
}

// New validates cfg and creates a replayer.
func New(cfg Config) (*Replayer, error) {
	observability.EnsureRegistered()

	if cfg.Tools.Funds == nil || cfg.Tools.Themes == nil || cfg.Tools.Renderer == nil {
		return nil, errors.New("tool collaborators are required")
	}
	if cfg.RenderConcurrency <= 0 {
		cfg.RenderConcurrency = defaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.DefaultTheme == "" {
		cfg.DefaultTheme = "default"
	}
	return &Replayer{cfg: cfg}, nil
}

// Replay applies p's entries, in recorded order, to a fresh report for
// fundID using the fund's current data. An empty fundID replays against the
// fund the plan was recorded for. A non-empty themeOverride replaces the
// theme of every recorded set_theme, or selects the theme up front when the
// plan never set one.
func (r *Replayer) Replay(ctx context.Context, p *plan.Plan, fundID, themeOverride string) (res *Result, err error) {
	if p == nil || p.Len() == 0 {
		return nil, errors.New("plan has no entries")
	}
	if fundID == "" {
		fundID = p.FundID()
	}

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	ctx, runID := tracing.NewRunContext(ctx, fundID)
	ctx = tracing.WithPlan(ctx, p.Name())
	ctx, span := tracing.StartSpan(ctx, "replay.run",
		attribute.Int("entries", p.Len()),
		attribute.String("theme_override", themeOverride),
	)
	logger := tracing.LoggerFromContext(ctx, r.cfg.Logger)

	defer func() {
		observability.RecordReplay(time.Since(started), err == nil)
		observability.RecordReplayAudit(ctx, runID, p.Name(), err == nil, map[string]interface{}{
			"fund_id":        fundID,
			"theme_override": themeOverride,
		})
		tracing.EndSpan(span, err)
		if err != nil {
			logger.Warn().Err(err).Msg("Replay failed")
		}
	}()

	tools := r.cfg.Tools
	tools.FundID = fundID
	tools.Path = toolexecutor.PathReplay
	tools.Logger = logger
	exec, err := toolexecutor.New(tools)
	if err != nil {
		return nil, err
	}

	profile, err := exec.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund %s: %w", fundID, err)
	}

	initialTheme := r.cfg.DefaultTheme
	if p.ThemeID() != "" {
		initialTheme = p.ThemeID()
	}
	if themeOverride != "" {
		if _, err := tools.Themes.Get(ctx, themeOverride); err != nil {
			return nil, fmt.Errorf("unknown theme override %s: %w", themeOverride, err)
		}
		initialTheme = themeOverride
	}

	entries := substituteTheme(p.Entries(), themeOverride)

	artifacts, failed, err := r.prerender(ctx, profile, entries)
	if err != nil {
		return nil, err
	}
	exec = exec.WithPrerendered(artifacts, failed)

	state := report.NewState(initialTheme)
	log := make([]report.ToolCall, 0, len(entries))
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, &ReplayError{Index: i, Tool: entry.Tool, Err: err}
		}

		entry.ID = callID()
		out := exec.Execute(ctx, state, entry)
		log = append(log, out.Call)
		if !out.OK() {
			return nil, &ReplayError{Index: i, Tool: entry.Tool, Err: out.Err}
		}
	}

	if !state.Complete() {
		return nil, &ReplayError{
			Index: len(entries) - 1,
			Tool:  entries[len(entries)-1].Tool,
			Err:   errors.New("plan did not finalize the report"),
		}
	}

	res = &Result{
		RunID:  runID,
		FundID: fundID,
		Plan:   p.Name(),
		State:  state,
		Log:    log,
	}

	if r.cfg.Documents != nil {
		doc, err := r.renderDocument(ctx, state)
		if err != nil {
			return nil, &ReplayError{Index: len(entries), Tool: "render_document", Err: err}
		}
		res.Document = doc
		res.Format = r.cfg.Documents.Format()
	}

	res.Duration = time.Since(started)
	logger.Info().
		Int("entries", len(entries)).
		Int("charts", len(artifacts)).
		Str("theme", state.ThemeID()).
		Dur("duration", res.Duration).
		Msg("Replay finished")

	return res, nil
}

// prerender draws every generate_chart entry concurrently, bounded by
// RenderConcurrency. Render failures are returned per chart id and surface
// when the ordered pass reaches their entry, so an earlier failing entry
// always wins. Charts that are unavailable or repeated are left to the
// ordered pass, which rejects them with the proper precondition.
func (r *Replayer) prerender(ctx context.Context, profile *fund.Profile, entries []report.ToolCall) (map[string]report.ChartArtifact, map[string]error, error) {
	available := make(map[string]bool)
	for _, id := range fund.AvailableChartIDs(profile) {
		available[id] = true
	}

	var jobs []report.ToolCall
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.Tool != string(catalog.GenerateChart) {
			continue
		}
		id := catalog.StringArg(e.Arguments, catalog.ArgChartID)
		if !available[id] || seen[id] {
			continue
		}
		seen[id] = true
		jobs = append(jobs, e)
	}

	var mu sync.Mutex
	artifacts := make(map[string]report.ChartArtifact, len(jobs))
	failed := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.RenderConcurrency)
	for _, entry := range jobs {
		g.Go(func() error {
			chartID := catalog.StringArg(entry.Arguments, catalog.ArgChartID)
			start := time.Now()
			artifact, err := r.cfg.Tools.Renderer.RenderChart(gctx, chartID, entry.Arguments, profile)
			observability.RecordChartRender(chartID, time.Since(start), err == nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[chartID] = err
				return nil
			}
			if artifact.ID == "" {
				artifact.ID = chartID
			}
			artifacts[chartID] = artifact
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, &ReplayError{Index: 0, Tool: entries[0].Tool, Err: err}
	}
	return artifacts, failed, nil
}

func (r *Replayer) renderDocument(ctx context.Context, state *report.State) ([]byte, error) {
	th, err := r.cfg.Tools.Themes.Get(ctx, state.ThemeID())
	if err != nil {
		return nil, err
	}
	doc, err := r.cfg.Documents.RenderDocument(ctx, state.Snapshot(), th)
	observability.RecordDocumentRender(r.cfg.Documents.Format(), err == nil)
	return doc, err
}

// substituteTheme rewrites the theme of recorded set_theme calls.
func substituteTheme(entries []report.ToolCall, themeOverride string) []report.ToolCall {
	if themeOverride == "" {
		return entries
	}
	for i := range entries {
		if entries[i].Tool == string(catalog.SetTheme) {
			entries[i].Arguments[catalog.ArgThemeID] = themeOverride
		}
	}
	return entries
}

func callID() string {
	id, err := gonanoid.New()
	if err != nil {
		return ""
	}
	return "replay_" + id
}

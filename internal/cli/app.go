package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/amatiych/llm-work/internal/config"
	"github.com/amatiych/llm-work/internal/logger"
	"github.com/amatiych/llm-work/internal/observability"
	"github.com/amatiych/llm-work/internal/tracing"
	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/llm"
	"github.com/amatiych/llm-work/pkg/orchestrator"
	"github.com/amatiych/llm-work/pkg/plan"
	"github.com/amatiych/llm-work/pkg/render"
	"github.com/amatiych/llm-work/pkg/replay"
	"github.com/amatiych/llm-work/pkg/report"
	"github.com/amatiych/llm-work/pkg/schedule"
	"github.com/amatiych/llm-work/pkg/theme"
	"github.com/amatiych/llm-work/pkg/toolexecutor"
)

// newProvider builds the model provider for a profile. Tests replace it.
var newProvider = func(profile llm.Profile) (llm.Provider, error) {
	factory := &llm.ProviderFactory{}
	return factory.NewProvider(profile)
}

// app holds the wired collaborators for one command invocation.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	logger zerolog.Logger

	funds  *fund.Registry
	themes *theme.Registry
	charts *render.SVGChartRenderer
	docs   render.DocumentRenderer

	store   plan.Store
	metrics *http.Server
}

func newApp(cfg *config.Config) (*app, error) {
	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, log: log, logger: log.Component("cli")}
	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg

	if err := tracing.InitOpenTelemetry("fundreport"); err != nil {
		a.logger.Warn().Err(err).Msg("OpenTelemetry disabled")
	}
	if err := observability.InitAuditLogger(filepath.Join(cfg.DataDir, "audit.log")); err != nil {
		return err
	}

	a.funds = fund.NewRegistry(a.log.Component("funds"))
	if cfg.FundsDir != "" {
		if err := a.funds.LoadDir(cfg.FundsDir); err != nil {
			return fmt.Errorf("failed to load funds: %w", err)
		}
	}

	themes, err := theme.NewRegistry(a.log.Component("themes"), cfg.ThemesDir)
	if err != nil {
		return fmt.Errorf("failed to load themes: %w", err)
	}
	a.themes = themes

	charts, err := render.NewSVGChartRenderer(cfg.Render.ChartsDir, a.log.Component("render"))
	if err != nil {
		return err
	}
	a.charts = charts

	switch cfg.Render.Format {
	case render.FormatPDF:
		a.docs = render.NewPDFDocumentRenderer(render.PDFConfig{
			ChromePath: cfg.Render.ChromePath,
			NoSandbox:  cfg.Render.NoSandbox,
			Funds:      a.funds,
		}, a.log.Component("render"))
	default:
		a.docs = render.NewHTMLDocumentRenderer().WithFunds(a.funds)
	}

	if cfg.Metrics.Addr != "" {
		a.serveMetrics(cfg.Metrics.Addr)
	}
	return nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	a.metrics = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}

// planStore opens the configured plan store on first use.
func (a *app) planStore() (plan.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := plan.NewStore(plan.StoreConfig{
		Backend: a.cfg.Storage.Backend,
		Path:    a.cfg.Storage.Path,
		Logger:  a.log.Component("plans"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open plan store: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *app) toolsConfig() toolexecutor.Config {
	return toolexecutor.Config{
		Funds:    a.funds,
		Charts:   a.funds,
		Themes:   a.themes,
		Renderer: a.charts,
		Logger:   a.log.Component("tools"),
	}
}

func (a *app) orchestrator() (*orchestrator.Orchestrator, error) {
	profile, err := a.cfg.ActiveProfile()
	if err != nil {
		return nil, err
	}
	provider, err := newProvider(profile)
	if err != nil {
		return nil, err
	}

	o := a.cfg.Orchestrator
	base, maxDelay := o.Backoff()
	return orchestrator.New(orchestrator.Config{
		Provider:               provider,
		Tools:                  a.toolsConfig(),
		Model:                  a.cfg.Model,
		Temperature:            a.cfg.Temperature,
		MaxTokens:              a.cfg.MaxTokens,
		MaxTurns:               o.MaxTurns,
		MaxFinalizeCorrections: o.MaxFinalizeCorrections,
		MaxTransportAttempts:   o.MaxTransportAttempts,
		BackoffBase:            base,
		BackoffMultiplier:      o.BackoffMultiplier,
		MaxBackoff:             maxDelay,
		TurnTimeout:            o.TurnTimeout(),
		RunTimeout:             o.RunTimeout(),
		DefaultTheme:           o.DefaultTheme,
		Logger:                 a.log.Component("orchestrator"),
	})
}

func (a *app) replayer() (*replay.Replayer, error) {
	return replay.New(replay.Config{
		Tools:             a.toolsConfig(),
		Documents:         a.docs,
		RenderConcurrency: a.cfg.Replay.RenderConcurrency,
		Timeout:           a.cfg.Replay.Timeout(),
		DefaultTheme:      a.cfg.Orchestrator.DefaultTheme,
		Logger:            a.log.Component("replay"),
	})
}

func (a *app) scheduler() (*schedule.Service, error) {
	store, err := a.planStore()
	if err != nil {
		return nil, err
	}
	replayer, err := a.replayer()
	if err != nil {
		return nil, err
	}
	return schedule.NewService(schedule.Config{
		Jobs:   a.cfg.Schedules,
		Run:    schedule.ReplayRunner(store, replayer, a.cfg.Render.OutputDir),
		Logger: a.log.Component("schedule"),
	})
}

// renderDocument renders a finished live report with its theme.
func (a *app) renderDocument(ctx context.Context, fundID string, state *report.State) ([]byte, error) {
	ctx = tracing.WithFundID(ctx, fundID)
	th, err := a.themes.Get(ctx, state.ThemeID())
	if err != nil {
		return nil, err
	}
	doc, err := a.docs.RenderDocument(ctx, state.Snapshot(), th)
	observability.RecordDocumentRender(a.docs.Format(), err == nil)
	return doc, err
}

// Close releases everything newApp opened.
func (a *app) Close() error {
	var errs []error

	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.metrics.Shutdown(ctx))
		cancel()
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if closer, ok := a.docs.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	errs = append(errs, observability.CloseAuditLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	errs = append(errs, tracing.ShutdownOpenTelemetry(ctx))
	cancel()

	errs = append(errs, a.log.Close())
	return errors.Join(errs...)
}

package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fundreport"

type moduleMetrics struct {
	toolCallTotal    *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec

	runTotal         *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	runTurns         *prometheus.HistogramVec
	transportRetries *prometheus.CounterVec
	transportErrors  *prometheus.CounterVec

	replayTotal    *prometheus.CounterVec
	replayDuration prometheus.Histogram

	chartRenderDuration *prometheus.HistogramVec
	chartRenderErrors   *prometheus.CounterVec
	documentRenders     *prometheus.CounterVec

	planStoreOps *prometheus.CounterVec
	scheduleRuns *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			toolCallTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "tool_calls_total",
					Help:      "Total tool calls by tool, path and outcome.",
				},
				[]string{"tool", "path", "outcome"},
			),
			toolCallDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "tool_call_duration_seconds",
					Help:      "Tool call duration in seconds by tool.",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
			runTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "runs_total",
					Help:      "Total live runs by provider and terminal status.",
				},
				[]string{"provider", "status"},
			),
			runDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "run_duration_seconds",
					Help:      "Live run duration in seconds by provider.",
					Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
				},
				[]string{"provider"},
			),
			runTurns: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "run_turns",
					Help:      "Model turns used per live run by status.",
					Buckets:   prometheus.LinearBuckets(1, 2, 10),
				},
				[]string{"status"},
			),
			transportRetries: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "transport_retries_total",
					Help:      "Total retried model transport calls by provider.",
				},
				[]string{"provider"},
			),
			transportErrors: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "transport_errors_total",
					Help:      "Total failed model transport calls by provider and retryability.",
				},
				[]string{"provider", "retryable"},
			),
			replayTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "replays_total",
					Help:      "Total plan replays by status.",
				},
				[]string{"status"},
			),
			replayDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "replay_duration_seconds",
					Help:      "Plan replay duration in seconds.",
					Buckets:   prometheus.DefBuckets,
				},
			),
			chartRenderDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "chart_render_duration_seconds",
					Help:      "Chart render duration in seconds by chart type.",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"chart"},
			),
			chartRenderErrors: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "chart_render_errors_total",
					Help:      "Total chart render failures by chart type.",
				},
				[]string{"chart"},
			),
			documentRenders: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "document_renders_total",
					Help:      "Total document renders by format and status.",
				},
				[]string{"format", "status"},
			),
			planStoreOps: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "plan_store_operations_total",
					Help:      "Total plan store operations by backend, operation and status.",
				},
				[]string{"backend", "op", "status"},
			),
			scheduleRuns: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "scheduled_replays_total",
					Help:      "Total scheduled replay executions by status.",
				},
				[]string{"status"},
			),
		}

		prometheus.MustRegister(
			m.toolCallTotal,
			m.toolCallDuration,
			m.runTotal,
			m.runDuration,
			m.runTurns,
			m.transportRetries,
			m.transportErrors,
			m.replayTotal,
			m.replayDuration,
			m.chartRenderDuration,
			m.chartRenderErrors,
			m.documentRenders,
			m.planStoreOps,
			m.scheduleRuns,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordToolCall counts one dispatched tool call. path is "live" or "replay".
func RecordToolCall(tool, path, outcome string, duration time.Duration) {
	m := getMetrics()
	m.toolCallTotal.WithLabelValues(tool, path, outcome).Inc()
	m.toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func RecordRun(provider, status string, turns int, duration time.Duration) {
	m := getMetrics()
	m.runTotal.WithLabelValues(provider, status).Inc()
	m.runDuration.WithLabelValues(provider).Observe(duration.Seconds())
	m.runTurns.WithLabelValues(status).Observe(float64(turns))
}

func RecordTransportRetry(provider string) {
	getMetrics().transportRetries.WithLabelValues(provider).Inc()
}

func RecordTransportError(provider string, retryable bool) {
	label := "false"
	if retryable {
		label = "true"
	}
	getMetrics().transportErrors.WithLabelValues(provider, label).Inc()
}

func RecordReplay(duration time.Duration, success bool) {
	m := getMetrics()
	m.replayTotal.WithLabelValues(statusLabel(success)).Inc()
	m.replayDuration.Observe(duration.Seconds())
}

func RecordChartRender(chart string, duration time.Duration, success bool) {
	m := getMetrics()
	m.chartRenderDuration.WithLabelValues(chart).Observe(duration.Seconds())
	if !success {
		m.chartRenderErrors.WithLabelValues(chart).Inc()
	}
}

func RecordDocumentRender(format string, success bool) {
	getMetrics().documentRenders.WithLabelValues(format, statusLabel(success)).Inc()
}

func RecordPlanStoreOp(backend, op string, success bool) {
	getMetrics().planStoreOps.WithLabelValues(backend, op, statusLabel(success)).Inc()
}

func RecordScheduledReplay(success bool) {
	getMetrics().scheduleRuns.WithLabelValues(statusLabel(success)).Inc()
}

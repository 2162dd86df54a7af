package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/amatiych/llm-work/internal/tracing"
	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/report"
)

// SVGChartRenderer writes one SVG file per chart under a directory per run.
// The artifact handle is the file path.
type SVGChartRenderer struct {
	dir    string
	width  int
	height int
	logger zerolog.Logger
}

// NewSVGChartRenderer creates the output directory if needed.
func NewSVGChartRenderer(dir string, logger zerolog.Logger) (*SVGChartRenderer, error) {
	if dir == "" {
		return nil, fmt.Errorf("chart output directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}
	return &SVGChartRenderer{
		dir:    dir,
		width:  640,
		height: 360,
		logger: logger,
	}, nil
}

// Dir returns the output directory.
func (r *SVGChartRenderer) Dir() string {
	return r.dir
}

// RenderChart implements ChartRenderer. Charts land in <dir>/<run_id>/ so
// concurrent runs over the same fund never share a file.
func (r *SVGChartRenderer) RenderChart(ctx context.Context, chartID string, args map[string]interface{}, profile *fund.Profile) (report.ChartArtifact, error) {
	if err := ctx.Err(); err != nil {
		return report.ChartArtifact{}, &RenderError{ChartID: chartID, Err: err}
	}

	chartType, ok := fund.LookupChart(chartID)
	if !ok {
		return report.ChartArtifact{}, &RenderError{ChartID: chartID, Err: fmt.Errorf("unknown chart type")}
	}
	if !chartType.Available(profile) {
		return report.ChartArtifact{}, &RenderError{ChartID: chartID, Err: fmt.Errorf("fund has no data for this chart")}
	}

	title := chartType.Name
	if v, ok := args["title"].(string); ok && strings.TrimSpace(v) != "" {
		title = strings.TrimSpace(v)
	}

	start := time.Now()
	svg, err := r.draw(chartID, profile)
	if err != nil {
		return report.ChartArtifact{}, &RenderError{ChartID: chartID, Err: err}
	}
	svg = withTitle(svg, r.width, title)

	runID := tracing.GetRunID(ctx)
	if runID == "" {
		runID = tracing.NewRunID()
	}
	dir := filepath.Join(r.dir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return report.ChartArtifact{}, &RenderError{ChartID: chartID, Err: err}
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.svg", profile.FundID, chartID))
	if err := writeFileAtomic(path, []byte(svg)); err != nil {
		return report.ChartArtifact{}, &RenderError{ChartID: chartID, Err: err}
	}

	r.logger.Debug().
		Str("chart", chartID).
		Str("fund_id", profile.FundID).
		Str("run_id", runID).
		Dur("duration", time.Since(start)).
		Msg("Chart rendered")

	return report.ChartArtifact{
		ID:        chartID,
		Type:      chartID,
		SeriesRef: chartType.SeriesRef,
		Handle:    path,
	}, nil
}

func (r *SVGChartRenderer) draw(chartID string, p *fund.Profile) (string, error) {
	switch chartID {
	case fund.ChartHistogram:
		values := make([]float64, len(p.MonthlyReturns))
		for i, pt := range p.MonthlyReturns {
			values[i] = pt.Value
		}
		labels, counts := histogramBins(values, 10)
		return r.bars(labels, counts)
	case fund.ChartLine:
		return r.lines([]string{"Portfolio", "Benchmark"}, p.Portfolio, p.Benchmark)
	case fund.ChartSpider:
		return drawSpider(r.width, r.height, p.RiskScores), nil
	case fund.ChartStackedArea:
		return r.stacked(p.AllocationHistory)
	case fund.ChartDrawdown:
		return r.lines([]string{"Drawdown"}, fund.Drawdowns(p.Portfolio))
	case fund.ChartPie:
		return r.pie(p.Allocation)
	case fund.ChartRollingReturns:
		return r.lines([]string{"Rolling 12M"}, fund.RollingReturns(p.MonthlyReturns, 12))
	case fund.ChartContributorBar:
		labels := make([]string, len(p.Holdings))
		values := make([]float64, len(p.Holdings))
		for i, h := range p.Holdings {
			labels[i] = h.Name
			values[i] = h.WeightPct * h.ReturnPct / 100
		}
		return r.bars(labels, values)
	case fund.ChartIncome:
		labels := make([]string, len(p.IncomeStream))
		values := make([]float64, len(p.IncomeStream))
		for i, pt := range p.IncomeStream {
			labels[i] = pt.Date
			values[i] = pt.Value
		}
		return r.bars(labels, values)
	case fund.ChartDurationBar:
		return r.weights(p.DurationBuckets)
	case fund.ChartSectorBar:
		return r.weights(p.SectorExposure)
	}
	return "", fmt.Errorf("no drawing for chart %s", chartID)
}

func (r *SVGChartRenderer) background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: titleHeight, Left: 16, Right: 24, Bottom: 16}}
}

func (r *SVGChartRenderer) bars(labels []string, values []float64) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("no values to plot")
	}
	lo, hi := paddedRange(bounds(values))

	// crowded axes keep every other label
	step := 1
	if len(labels) > 12 {
		step = 2
	}
	bars := make([]chart.Value, len(values))
	for i, v := range values {
		color := paletteColor(0)
		if v < 0 {
			color = negativeColor
		}
		label := ""
		if i%step == 0 {
			label = labels[i]
		}
		bars[i] = chart.Value{
			Value: v,
			Label: label,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		}
	}

	slot := float64(r.width-96) / float64(len(bars))
	graph := chart.BarChart{
		Width:        r.width,
		Height:       r.height,
		Background:   r.background(),
		BarWidth:     int(math.Max(slot*0.7, 1)),
		BarSpacing:   int(math.Max(slot*0.3, 1)),
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: formatValue,
		},
		Bars: bars,
	}
	return renderSVG(graph.Render)
}

func (r *SVGChartRenderer) weights(weights []fund.Weight) (string, error) {
	labels := make([]string, len(weights))
	values := make([]float64, len(weights))
	for i, w := range weights {
		labels[i] = w.Name
		values[i] = w.Pct
	}
	return r.bars(labels, values)
}

func (r *SVGChartRenderer) lines(names []string, series ...[]fund.Point) (string, error) {
	var all []float64
	longest := 0
	for i, s := range series {
		for _, pt := range s {
			all = append(all, pt.Value)
		}
		if len(s) > len(series[longest]) {
			longest = i
		}
	}
	if len(all) == 0 {
		return "", fmt.Errorf("no values to plot")
	}
	rawLo, rawHi := bounds(all)
	lo, hi := paddedRange(rawLo, rawHi)
	dates := series[longest]

	graph := chart.Chart{
		Width:      r.width,
		Height:     r.height,
		Background: r.background(),
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(float64(len(dates)-1), 1)},
			Ticks: dateTicks(dates),
		},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: formatValue,
		},
	}
	for i, s := range series {
		xs := make([]float64, len(s))
		ys := make([]float64, len(s))
		for j, pt := range s {
			xs[j] = float64(j)
			ys[j] = pt.Value
		}
		color := paletteColor(i)
		if len(series) == 1 && rawHi <= 0 {
			color = negativeColor
		}
		name := ""
		if i < len(names) {
			name = names[i]
		}
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: color, StrokeWidth: 2},
		})
	}
	if len(series) > 1 {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}
	return renderSVG(graph.Render)
}

// stacked draws allocation history as 100% stacked bars, one per period.
func (r *SVGChartRenderer) stacked(history []fund.AllocationPoint) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("no allocation history")
	}
	history = sample(history, 12)

	slot := float64(r.width-96) / float64(len(history))
	bars := make([]chart.StackedBar, len(history))
	for i, h := range history {
		values := make([]chart.Value, len(h.Weights))
		for j, w := range h.Weights {
			color := paletteColor(j)
			values[j] = chart.Value{
				Value: math.Max(w.Pct, 0),
				Label: w.Name,
				Style: chart.Style{FillColor: color, StrokeColor: color},
			}
		}
		bars[i] = chart.StackedBar{
			Name:   h.Date,
			Width:  int(math.Max(slot*0.75, 1)),
			Values: values,
		}
	}

	graph := chart.StackedBarChart{
		Width:      r.width,
		Height:     r.height,
		Background: r.background(),
		BarSpacing: int(math.Max(slot*0.25, 1)),
		Bars:       bars,
	}
	return renderSVG(graph.Render)
}

func (r *SVGChartRenderer) pie(weights []fund.Weight) (string, error) {
	var values []chart.Value
	for i, w := range weights {
		if w.Pct <= 0 {
			continue
		}
		color := paletteColor(i)
		values = append(values, chart.Value{
			Value: w.Pct,
			Label: fmt.Sprintf("%s %.0f%%", w.Name, w.Pct),
			Style: chart.Style{FillColor: color, StrokeColor: chart.ColorWhite},
		})
	}
	if len(values) == 0 {
		return "", fmt.Errorf("allocation has no positive weights")
	}

	graph := chart.PieChart{
		Width:      r.width,
		Height:     r.height,
		Background: r.background(),
		Values:     values,
	}
	return renderSVG(graph.Render)
}

func renderSVG(render func(chart.RendererProvider, io.Writer) error) (string, error) {
	var buf bytes.Buffer
	if err := render(chart.SVG, &buf); err != nil {
		return "", err
	}
	return themeColors(strings.TrimSpace(buf.String())), nil
}

func formatValue(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1f", f)
	}
	return ""
}

// dateTicks labels the first, middle and last period of a series.
func dateTicks(points []fund.Point) []chart.Tick {
	if len(points) == 0 {
		return nil
	}
	last := len(points) - 1
	idx := []int{0}
	if last >= 2 {
		idx = append(idx, last/2)
	}
	if last > 0 {
		idx = append(idx, last)
	}
	ticks := make([]chart.Tick, len(idx))
	for i, j := range idx {
		ticks[i] = chart.Tick{Value: float64(j), Label: points[j].Date}
	}
	return ticks
}

// paddedRange widens [lo, hi] to include zero plus a margin, and never
// returns an empty range.
func paddedRange(lo, hi float64) (float64, float64) {
	if lo > 0 {
		lo = 0
	}
	if hi < 0 {
		hi = 0
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func bounds(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 0) {
		return 0, 1
	}
	return lo, hi
}

func histogramBins(values []float64, bins int) ([]string, []float64) {
	lo, hi := bounds(values)
	if hi == lo {
		hi = lo + 1
	}
	width := (hi - lo) / float64(bins)
	counts := make([]float64, bins)
	labels := make([]string, bins)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	for i := range labels {
		labels[i] = fmt.Sprintf("%.1f", lo+width*(float64(i)+0.5))
	}
	return labels, counts
}

// sample keeps at most n evenly spaced points, always including the last.
func sample(history []fund.AllocationPoint, n int) []fund.AllocationPoint {
	if len(history) <= n {
		return history
	}
	out := make([]fund.AllocationPoint, 0, n)
	stride := float64(len(history)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		out = append(out, history[int(math.Round(float64(i)*stride))])
	}
	return out
}

// writeFileAtomic writes via a temp file and rename so readers never see a
// partial chart.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

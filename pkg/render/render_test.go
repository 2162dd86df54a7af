package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amatiych/llm-work/internal/tracing"
	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/report"
	"github.com/amatiych/llm-work/pkg/theme"
)

func sampleProfile(t *testing.T, id string) *fund.Profile {
	t.Helper()
	p, err := fund.NewRegistry(zerolog.Nop()).Profile(context.Background(), id)
	require.NoError(t, err)
	return p
}

func TestSVGChartRenderer_AllAvailableCharts(t *testing.T) {
	r, err := NewSVGChartRenderer(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	for _, id := range []string{fund.SampleAlphaAggressive, fund.SampleHorizonIncome} {
		p := sampleProfile(t, id)
		for _, chart := range fund.AvailableCharts(p) {
			t.Run(id+"/"+chart.ID, func(t *testing.T) {
				artifact, err := r.RenderChart(context.Background(), chart.ID, nil, p)
				require.NoError(t, err)
				assert.Equal(t, chart.ID, artifact.ID)
				assert.Equal(t, chart.SeriesRef, artifact.SeriesRef)

				data, err := os.ReadFile(artifact.Handle)
				require.NoError(t, err)
				svg := string(data)
				assert.True(t, strings.HasPrefix(svg, "<svg"))
				assert.True(t, strings.HasSuffix(svg, "</svg>"))
				assert.Contains(t, svg, chart.Name)
			})
		}
	}
}

func TestSVGChartRenderer_Errors(t *testing.T) {
	r, err := NewSVGChartRenderer(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	p := sampleProfile(t, fund.SampleAlphaAggressive)

	_, err = r.RenderChart(context.Background(), "income_chart", nil, p)
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "income_chart", re.ChartID)

	_, err = r.RenderChart(context.Background(), "radar", nil, p)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.RenderChart(ctx, "line_chart", nil, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSVGChartRenderer_ThemeColors(t *testing.T) {
	r, err := NewSVGChartRenderer(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	p := sampleProfile(t, fund.SampleAlphaAggressive)

	for _, id := range []string{"line_chart", "contributor_bar", "spider_chart"} {
		artifact, err := r.RenderChart(context.Background(), id, nil, p)
		require.NoError(t, err)
		data, err := os.ReadFile(artifact.Handle)
		require.NoError(t, err)
		svg := string(data)
		assert.Contains(t, svg, "var(--series-0, #1f4e79)", id)
		assert.NotContains(t, svg, paletteColor(0).String(), id)
		assert.True(t, strings.HasPrefix(svg, `<svg class="chart"`), id)
	}
}

func TestSVGChartRenderer_RunScopedPaths(t *testing.T) {
	dir := t.TempDir()
	r, err := NewSVGChartRenderer(dir, zerolog.Nop())
	require.NoError(t, err)
	p := sampleProfile(t, fund.SampleAlphaAggressive)

	first, err := r.RenderChart(tracing.WithRunID(context.Background(), "run_a"), "pie_chart", nil, p)
	require.NoError(t, err)
	second, err := r.RenderChart(tracing.WithRunID(context.Background(), "run_b"), "pie_chart",
		map[string]interface{}{"title": "Allocation B"}, p)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "run_a", "alpha_aggressive_pie_chart.svg"), first.Handle)
	assert.Equal(t, filepath.Join(dir, "run_b", "alpha_aggressive_pie_chart.svg"), second.Handle)

	a, err := os.ReadFile(first.Handle)
	require.NoError(t, err)
	assert.NotContains(t, string(a), "Allocation B")

	// without a run in the context every call still gets its own directory
	third, err := r.RenderChart(context.Background(), "pie_chart", nil, p)
	require.NoError(t, err)
	assert.NotEqual(t, dir, filepath.Dir(third.Handle))
	assert.Equal(t, dir, filepath.Dir(filepath.Dir(third.Handle)))
}

func TestSVGChartRenderer_CustomTitleEscaped(t *testing.T) {
	r, err := NewSVGChartRenderer(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	p := sampleProfile(t, fund.SampleAlphaAggressive)

	artifact, err := r.RenderChart(context.Background(), "pie_chart", map[string]interface{}{"title": "Mix <now>"}, p)
	require.NoError(t, err)
	data, err := os.ReadFile(artifact.Handle)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mix &lt;now&gt;")
}

func TestHTMLDocumentRenderer(t *testing.T) {
	charts, err := NewSVGChartRenderer(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	p := sampleProfile(t, fund.SampleAlphaAggressive)

	artifact, err := charts.RenderChart(context.Background(), "drawdown_chart", nil, p)
	require.NoError(t, err)

	state := report.NewState(theme.DefaultThemeID)
	require.NoError(t, state.Apply(report.AddChart{Artifact: artifact}))
	require.NoError(t, state.Apply(report.AddSection{Section: report.Section{
		Title: "Risk Review", Body: "First paragraph.\n\nSecond paragraph.", ChartRef: "drawdown_chart",
	}}))
	require.NoError(t, state.Apply(report.Finalize{Title: "Q3 Risk Report", Subtitle: "Alpha"}))

	var ember theme.Theme
	for _, th := range theme.Builtin() {
		if th.ID == "ember_wealth" {
			ember = th
		}
	}

	r := NewHTMLDocumentRenderer()
	assert.Equal(t, FormatHTML, r.Format())

	doc, err := r.RenderDocument(context.Background(), state.Snapshot(), ember)
	require.NoError(t, err)
	html := string(doc)

	assert.Contains(t, html, "<h1>Q3 Risk Report</h1>")
	assert.Contains(t, html, "<h2>Risk Review</h2>")
	assert.Contains(t, html, "<p>Second paragraph.</p>")
	assert.Contains(t, html, "--series-0: #7a1f0f")
	assert.Contains(t, html, "Ember Wealth Management | Confidential")
	assert.Contains(t, html, "<svg")
}

func TestHTMLDocumentRenderer_HoldingsTable(t *testing.T) {
	state := report.NewState(theme.DefaultThemeID)
	require.NoError(t, state.Apply(report.AddSection{Section: report.Section{Title: "Summary", Body: "Steady quarter."}}))
	require.NoError(t, state.Apply(report.Finalize{Title: "Q3 Review"}))

	funds := fund.NewRegistry(zerolog.Nop())
	r := NewHTMLDocumentRenderer().WithFunds(funds)
	ctx := tracing.WithFundID(context.Background(), fund.SampleAlphaAggressive)

	doc, err := r.RenderDocument(ctx, state.Snapshot(), theme.Builtin()[0])
	require.NoError(t, err)
	html := string(doc)
	assert.Contains(t, html, "<h2>Top Holdings</h2>")
	assert.Contains(t, html, "<td>NVIDIA</td>")
	assert.Contains(t, html, "9.4%")
	assert.Contains(t, html, "-12.6%")
	assert.Less(t, strings.Index(html, "<h2>Summary</h2>"), strings.Index(html, "<h2>Top Holdings</h2>"))

	// no fund in the context, no table
	doc, err = r.RenderDocument(context.Background(), state.Snapshot(), theme.Builtin()[0])
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "Top Holdings")

	_, err = r.RenderDocument(tracing.WithFundID(context.Background(), "ghost_fund"), state.Snapshot(), theme.Builtin()[0])
	assert.ErrorIs(t, err, fund.ErrNotFound)
}

func TestHTMLDocumentRenderer_MissingChart(t *testing.T) {
	snap := report.Snapshot{
		Title:    "Broken",
		Sections: []report.Section{{Title: "A", ChartRef: "line_chart"}},
	}
	_, err := NewHTMLDocumentRenderer().RenderDocument(context.Background(), snap, theme.Builtin()[0])
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "line_chart", re.ChartID)
}

func TestParagraphs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, paragraphs("a\n\n  \n\nb"))
	assert.Nil(t, paragraphs("   "))
}

func TestWriteDocument(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	at := time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC)

	path, err := WriteDocument(dir, DocumentName("q3_risk", fund.SampleAlphaAggressive, at), FormatHTML, []byte("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "q3_risk_alpha_aggressive_20260331T180000.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))

	_, err = WriteDocument(dir, "empty", FormatHTML, nil)
	assert.Error(t, err)
}

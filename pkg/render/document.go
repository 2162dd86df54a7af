package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/amatiych/llm-work/internal/tracing"
	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/report"
	"github.com/amatiych/llm-work/pkg/theme"
)

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
:root {
{{- range $i, $c := .Palette}}
  --series-{{$i}}: {{$c}};
{{- end}}
  --primary: {{.Theme.Colors.Primary}};
  --accent: {{.Theme.Colors.Accent}};
  --text: {{.Theme.Colors.Text}};
  --axis: {{.Theme.Colors.Secondary}};
}
body { background: {{.Theme.Colors.Background}}; color: var(--text); font-family: {{.Font}}; margin: 40px; }
header { border-bottom: 4px solid var(--primary); margin-bottom: 24px; }
h1 { color: var(--primary); margin-bottom: 4px; }
h2 { color: var(--primary); border-left: 6px solid var(--accent); padding-left: 8px; }
.subtitle { color: var(--accent); margin-top: 0; }
.chart { display: block; margin: 12px auto; max-width: 100%; }
section { page-break-inside: avoid; margin-bottom: 28px; }
table.holdings { border-collapse: collapse; width: 100%; font-size: 13px; }
table.holdings th { background: var(--primary); color: {{.Theme.Colors.Background}}; text-align: left; padding: 6px 8px; }
table.holdings td { border-bottom: 1px solid var(--axis); padding: 5px 8px; }
table.holdings td.num, table.holdings th.num { text-align: right; }
footer { border-top: 1px solid var(--primary); margin-top: 32px; font-size: 11px; }
</style>
</head>
<body>
<header>
{{- if .Theme.LogoPath}}<img src="{{.Theme.LogoPath}}" alt="{{.Theme.ClientName}}" height="48">{{end}}
<h1>{{.Title}}</h1>
{{- if .Subtitle}}<p class="subtitle">{{.Subtitle}}</p>{{end}}
</header>
{{- range .Sections}}
<section>
<h2>{{.Title}}</h2>
{{- range .Paragraphs}}
<p>{{.}}</p>
{{- end}}
{{- if .Chart}}
{{.Chart}}
{{- end}}
</section>
{{- end}}
{{- if .Holdings}}
<section class="holdings">
<h2>Top Holdings</h2>
<table class="holdings">
<thead><tr><th>Holding</th><th class="num">Weight</th><th class="num">Return</th></tr></thead>
<tbody>
{{- range .Holdings}}
<tr><td>{{.Name}}</td><td class="num">{{printf "%.1f%%" .WeightPct}}</td><td class="num">{{printf "%+.1f%%" .ReturnPct}}</td></tr>
{{- end}}
</tbody>
</table>
</section>
{{- end}}
<footer>{{if .Theme.BrandingText}}{{.Theme.BrandingText}} | {{end}}Generated {{.Generated}}</footer>
</body>
</html>
`

var docTmpl = template.Must(template.New("report").Parse(documentTemplate))

type docSection struct {
	Title      string
	Paragraphs []string
	Chart      template.HTML
}

type docData struct {
	Title     string
	Subtitle  string
	Theme     theme.Theme
	Palette   []template.CSS
	Font      template.CSS
	Sections  []docSection
	Holdings  []fund.Holding
	Generated string
}

const maxHoldings = 10

// HTMLDocumentRenderer renders a report as a standalone HTML page with the
// chart SVGs inlined. With a fund provider attached, the page closes with a
// top holdings table for the fund carried by the context.
type HTMLDocumentRenderer struct {
	now   func() time.Time
	funds fund.Provider
}

// NewHTMLDocumentRenderer creates an HTML renderer.
func NewHTMLDocumentRenderer() *HTMLDocumentRenderer {
	return &HTMLDocumentRenderer{now: time.Now}
}

// WithFunds returns a renderer that adds the fund's top holdings.
func (r *HTMLDocumentRenderer) WithFunds(funds fund.Provider) *HTMLDocumentRenderer {
	return &HTMLDocumentRenderer{now: r.now, funds: funds}
}

// Format implements DocumentRenderer.
func (r *HTMLDocumentRenderer) Format() string { return FormatHTML }

// RenderDocument implements DocumentRenderer.
func (r *HTMLDocumentRenderer) RenderDocument(ctx context.Context, snap report.Snapshot, th theme.Theme) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Err: err}
	}

	charts := make(map[string]report.ChartArtifact, len(snap.Charts))
	for _, c := range snap.Charts {
		charts[c.ID] = c
	}

	data := docData{
		Title:     snap.Title,
		Subtitle:  snap.Subtitle,
		Theme:     th,
		Font:      template.CSS(fontFamily(th)),
		Generated: r.now().Format("2006-01-02"),
	}
	for _, c := range th.Palette {
		data.Palette = append(data.Palette, template.CSS(c))
	}

	for _, s := range snap.Sections {
		ds := docSection{Title: s.Title, Paragraphs: paragraphs(s.Body)}
		if s.ChartRef != "" {
			artifact, ok := charts[s.ChartRef]
			if !ok {
				return nil, &RenderError{ChartID: s.ChartRef, Err: fmt.Errorf("section %q references a chart missing from the report", s.Title)}
			}
			svg, err := os.ReadFile(artifact.Handle)
			if err != nil {
				return nil, &RenderError{ChartID: s.ChartRef, Err: err}
			}
			ds.Chart = template.HTML(svg)
		}
		data.Sections = append(data.Sections, ds)
	}

	holdings, err := r.holdings(ctx)
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	data.Holdings = holdings

	var buf bytes.Buffer
	if err := docTmpl.Execute(&buf, data); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

func (r *HTMLDocumentRenderer) holdings(ctx context.Context) ([]fund.Holding, error) {
	fundID := tracing.GetFundID(ctx)
	if r.funds == nil || fundID == "" {
		return nil, nil
	}
	p, err := r.funds.Profile(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	holdings := p.Holdings
	if len(holdings) > maxHoldings {
		holdings = holdings[:maxHoldings]
	}
	return holdings, nil
}

func fontFamily(th theme.Theme) string {
	if th.FontFamily != "" {
		return th.FontFamily
	}
	return "Helvetica, Arial, sans-serif"
}

func paragraphs(body string) []string {
	var out []string
	for _, p := range strings.Split(body, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

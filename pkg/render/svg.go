package render

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/amatiych/llm-work/pkg/fund"
)

// Charts are drawn in a fixed palette which themeColors rewrites into CSS
// custom properties, so the document theme decides the colours at render
// time.

const titleHeight = 44

var palette = []drawing.Color{
	{R: 0x1f, G: 0x4e, B: 0x79, A: 255},
	{R: 0x2e, G: 0x75, B: 0xb6, A: 255},
	{R: 0x9d, G: 0xc3, B: 0xe6, A: 255},
	{R: 0xc5, G: 0x5a, B: 0x11, A: 255},
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 255},
}

var negativeColor = drawing.Color{R: 0xc0, G: 0x39, B: 0x2b, A: 255}

func paletteColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

func hex(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func seriesVar(i int) string {
	c := paletteColor(i)
	return fmt.Sprintf("var(--series-%d, %s)", i%len(palette), hex(c))
}

func negativeVar() string {
	return fmt.Sprintf("var(--negative, %s)", hex(negativeColor))
}

const (
	axisVar = "var(--axis, #999999)"
	textVar = "var(--text, #222222)"
)

var colorVars = func() *strings.Replacer {
	var pairs []string
	for i, c := range palette {
		pairs = append(pairs, c.String(), seriesVar(i))
	}
	pairs = append(pairs, negativeColor.String(), negativeVar())
	return strings.NewReplacer(pairs...)
}()

func themeColors(svg string) string {
	return colorVars.Replace(svg)
}

// withTitle tags the root element and draws the chart title in the space
// reserved by the top padding.
func withTitle(svg string, width int, title string) string {
	end := strings.Index(svg, ">")
	if !strings.HasPrefix(svg, "<svg") || end < 0 {
		return svg
	}
	heading := fmt.Sprintf(`<text x="%d" y="26" text-anchor="middle" style="fill:%s;font-size:15px;font-weight:bold;font-family:sans-serif">%s</text>`,
		width/2, textVar, html.EscapeString(title))
	return `<svg class="chart"` + svg[len("<svg"):end+1] + heading + svg[end+1:]
}

// go-chart has no radar chart, so the spider chart is drawn by hand.

type canvas struct {
	b             strings.Builder
	width, height float64
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: float64(width), height: float64(height)}
	fmt.Fprintf(&c.b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`,
		width, height, width, height)
	return c
}

func (c *canvas) String() string {
	return c.b.String() + "</svg>"
}

func (c *canvas) text(x, y float64, s string) {
	fmt.Fprintf(&c.b, `<text x="%.1f" y="%.1f" text-anchor="middle" style="fill:%s;font-size:10px;font-family:sans-serif">%s</text>`,
		x, y, textVar, html.EscapeString(s))
}

func (c *canvas) line(x1, y1, x2, y2 float64) {
	fmt.Fprintf(&c.b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" style="stroke:%s;stroke-width:1"/>`,
		x1, y1, x2, y2, axisVar)
}

func (c *canvas) polygon(pts [][2]float64, color string, opacity float64) {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p[0], p[1])
	}
	fmt.Fprintf(&c.b, `<polygon points="%s" style="fill:%s;fill-opacity:%.2f;stroke:none"/>`,
		strings.Join(parts, " "), color, opacity)
}

func drawSpider(width, height int, scores []fund.RiskScore) string {
	c := newCanvas(width, height)
	n := len(scores)
	if n == 0 {
		return c.String()
	}

	top, bottom := float64(titleHeight), c.height-24
	cx, cy := c.width/2, (top+bottom)/2
	r := (bottom - top) / 2.3

	maxScore := 10.0
	for _, s := range scores {
		maxScore = math.Max(maxScore, s.Score)
	}
	point := func(i int, v float64) [2]float64 {
		a := -math.Pi/2 + float64(i)*2*math.Pi/float64(n)
		return [2]float64{cx + v/maxScore*r*math.Cos(a), cy + v/maxScore*r*math.Sin(a)}
	}

	ring := make([][2]float64, n)
	for i := range scores {
		ring[i] = point(i, maxScore)
		c.line(cx, cy, ring[i][0], ring[i][1])
		label := point(i, maxScore*1.12)
		c.text(label[0], label[1], scores[i].Category)
	}
	c.polygon(ring, axisVar, 0.08)

	shape := make([][2]float64, n)
	for i, s := range scores {
		shape[i] = point(i, s.Score)
	}
	c.polygon(shape, seriesVar(0), 0.5)

	return c.String()
}

package catalog

import (
	"strings"

	"github.com/amatiych/llm-work/pkg/fund"
)

// Name is the closed set of tool names.
type Name string

const (
	AnalyzeFund         Name = "analyze_fund"
	ListAvailableCharts Name = "list_available_charts"
	ListThemes          Name = "list_themes"
	GenerateChart       Name = "generate_chart"
	AddSection          Name = "add_section"
	SetTheme            Name = "set_theme"
	FinalizeReport      Name = "finalize_report"
)

// Kind classifies a tool by its effect on the report state.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutate   Kind = "mutate"
	KindTerminal Kind = "terminal"
)

// Argument keys.
const (
	ArgChartID  = "chart_id"
	ArgTitle    = "title"
	ArgBody     = "body"
	ArgChartRef = "chart_ref"
	ArgThemeID  = "theme_id"
	ArgSubtitle = "subtitle"
)

// Parameter defines one argument of a tool.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	MinLength   int    `json:"min_length,omitempty"`
}

// Tool is one entry of the catalog.
type Tool struct {
	Name        Name        `json:"name"`
	Kind        Kind        `json:"kind"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

// Mutates reports whether successful calls change the report state.
func (t Tool) Mutates() bool {
	return t.Kind == KindMutate || t.Kind == KindTerminal
}

func chartIDs() []string {
	types := fund.ChartTypes()
	ids := make([]string, len(types))
	for i, c := range types {
		ids[i] = c.ID
	}
	return ids
}

func builtinTools() []Tool {
	return []Tool{
		{
			Name: AnalyzeFund,
			Kind: KindQuery,
			Description: "Return the statistical profile of the fund this report is for: return statistics, " +
				"performance against benchmark, holdings, risk scores, allocation and which optional datasets exist.",
		},
		{
			Name:        ListAvailableCharts,
			Kind:        KindQuery,
			Description: "List the chart types whose data exists for this fund. Only these ids are accepted by generate_chart.",
		},
		{
			Name:        ListThemes,
			Kind:        KindQuery,
			Description: "List the branding themes that set_theme accepts.",
		},
		{
			Name:        GenerateChart,
			Kind:        KindMutate,
			Description: "Render one chart for the fund. A chart must be generated before a section can reference it.",
			Parameters: []Parameter{
				{Name: ArgChartID, Type: "string", Description: "Chart type id from list_available_charts, one of: " + strings.Join(chartIDs(), ", "), Required: true, MinLength: 1},
				{Name: ArgTitle, Type: "string", Description: "Optional caption drawn above the chart"},
			},
		},
		{
			Name:        AddSection,
			Kind:        KindMutate,
			Description: "Append a section to the report. Sections appear in the order they are added.",
			Parameters: []Parameter{
				{Name: ArgTitle, Type: "string", Description: "Section heading", Required: true, MinLength: 1},
				{Name: ArgBody, Type: "string", Description: "Section narrative text"},
				{Name: ArgChartRef, Type: "string", Description: "Id of an already generated chart to show in this section"},
			},
		},
		{
			Name:        SetTheme,
			Kind:        KindMutate,
			Description: "Select the client branding theme by id.",
			Parameters: []Parameter{
				{Name: ArgThemeID, Type: "string", Description: "Theme id from list_themes", Required: true, MinLength: 1},
			},
		},
		{
			Name:        FinalizeReport,
			Kind:        KindTerminal,
			Description: "Title the report and finish it. Requires at least one section. No further changes are possible afterwards.",
			Parameters: []Parameter{
				{Name: ArgTitle, Type: "string", Description: "Report title", Required: true, MinLength: 1},
				{Name: ArgSubtitle, Type: "string", Description: "Optional subtitle"},
			},
		},
	}
}

// KindOf returns the kind of a built-in tool without building a catalog.
func KindOf(name string) (Kind, bool) {
	for _, t := range builtinTools() {
		if string(t.Name) == name {
			return t.Kind, true
		}
	}
	return "", false
}

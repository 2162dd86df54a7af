package catalog

import (
	"fmt"
	"strings"

	"github.com/amatiych/llm-work/pkg/report"
)

// Env carries the collaborator facts preconditions depend on. It is a plain
// value so checks stay pure.
type Env struct {
	// AvailableCharts are the chart ids whose data exists for the run's fund.
	AvailableCharts []string
	// ThemeExists reports whether the theme provider knows an id.
	ThemeExists func(id string) bool
}

func (e Env) chartAvailable(id string) bool {
	for _, c := range e.AvailableCharts {
		if c == id {
			return true
		}
	}
	return false
}

// StringArg returns args[key] as a trimmed string, or "" when absent.
func StringArg(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return strings.TrimSpace(s)
}

// BuildMutation maps validated arguments onto the state change of a mutate
// or terminal tool. artifact is used only for generate_chart.
func BuildMutation(name Name, args map[string]interface{}, artifact report.ChartArtifact) (report.Mutation, error) {
	switch name {
	case GenerateChart:
		if artifact.ID == "" {
			artifact.ID = StringArg(args, ArgChartID)
		}
		return report.AddChart{Artifact: artifact}, nil
	case AddSection:
		return report.AddSection{Section: report.Section{
			Title:    StringArg(args, ArgTitle),
			Body:     StringArg(args, ArgBody),
			ChartRef: StringArg(args, ArgChartRef),
		}}, nil
	case SetTheme:
		return report.SetTheme{ThemeID: StringArg(args, ArgThemeID)}, nil
	case FinalizeReport:
		return report.Finalize{
			Title:    StringArg(args, ArgTitle),
			Subtitle: StringArg(args, ArgSubtitle),
		}, nil
	case AnalyzeFund, ListAvailableCharts, ListThemes:
		return nil, fmt.Errorf("%s does not mutate the report", name)
	default:
		return nil, report.NewToolError(report.CodeUnknownTool, string(name), "", "unknown tool %q", name)
	}
}

// CheckPreconditions evaluates the tool's preconditions against state, args
// and env. It never mutates state.
func CheckPreconditions(tool Tool, state *report.State, args map[string]interface{}, env Env) error {
	if !tool.Mutates() {
		return nil
	}
	name := string(tool.Name)
	if state.Terminal() {
		return report.Precondition(name, report.ConstraintNotTerminal, "report is already finalized; no further changes are accepted")
	}

	switch tool.Name {
	case GenerateChart:
		id := StringArg(args, ArgChartID)
		if !env.chartAvailable(id) {
			return report.Precondition(name, report.ConstraintChartAvailable,
				"chart %q is not available for this fund; available charts: %s",
				id, strings.Join(env.AvailableCharts, ", "))
		}
	case SetTheme:
		id := StringArg(args, ArgThemeID)
		if env.ThemeExists != nil && !env.ThemeExists(id) {
			return report.Precondition(name, report.ConstraintThemeExists,
				"theme %q does not exist; call list_themes for valid ids", id)
		}
	}

	m, err := BuildMutation(tool.Name, args, report.ChartArtifact{})
	if err != nil {
		return err
	}
	return state.Check(m)
}

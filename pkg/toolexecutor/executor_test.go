package toolexecutor

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/render"
	"github.com/amatiych/llm-work/pkg/report"
	"github.com/amatiych/llm-work/pkg/theme"
)

type countingRenderer struct {
	calls atomic.Int32
	fail  map[string]bool
}

func (r *countingRenderer) RenderChart(ctx context.Context, chartID string, args map[string]interface{}, p *fund.Profile) (report.ChartArtifact, error) {
	r.calls.Add(1)
	if r.fail[chartID] {
		return report.ChartArtifact{}, &render.RenderError{ChartID: chartID, Err: errors.New("boom")}
	}
	return report.ChartArtifact{ID: chartID, Type: chartID, SeriesRef: "series", Handle: "mem://" + chartID}, nil
}

func newTestExecutor(t *testing.T, fundID string, renderer render.ChartRenderer) *Executor {
	t.Helper()
	themes, err := theme.NewRegistry(zerolog.Nop(), "")
	require.NoError(t, err)

	exec, err := New(Config{
		FundID:   fundID,
		Funds:    fund.NewRegistry(zerolog.Nop()),
		Themes:   themes,
		Renderer: renderer,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return exec
}

func call(seq int, tool string, args map[string]interface{}) report.ToolCall {
	return report.ToolCall{Seq: seq, Tool: tool, Arguments: args}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{FundID: "x", Funds: fund.NewRegistry(zerolog.Nop())})
	assert.Error(t, err)
}

func TestExecute_QueryTools(t *testing.T) {
	exec := newTestExecutor(t, fund.SampleHorizonIncome, &countingRenderer{})
	state := report.NewState(theme.DefaultThemeID)
	ctx := context.Background()

	t.Run("analyze_fund", func(t *testing.T) {
		res := exec.Execute(ctx, state, call(1, "analyze_fund", nil))
		require.True(t, res.OK())
		analysis, ok := res.Output.(*Analysis)
		require.True(t, ok)
		assert.Equal(t, "Horizon Stable Income Fund", analysis.Name)
		assert.NotNil(t, analysis.IncomeSummary)
		assert.Contains(t, analysis.Datasets, fund.DatasetDuration)
		assert.Equal(t, report.OutcomeOK, res.Call.Outcome)
	})

	t.Run("list_available_charts", func(t *testing.T) {
		res := exec.Execute(ctx, state, call(2, "list_available_charts", map[string]interface{}{}))
		require.True(t, res.OK())

		var payload struct {
			Charts []ChartSummary `json:"charts"`
		}
		require.NoError(t, json.Unmarshal([]byte(res.Content()), &payload))
		var ids []string
		for _, c := range payload.Charts {
			ids = append(ids, c.ID)
		}
		assert.Contains(t, ids, fund.ChartIncome)
		assert.NotContains(t, ids, fund.ChartSectorBar)
	})

	t.Run("list_themes", func(t *testing.T) {
		res := exec.Execute(ctx, state, call(3, "list_themes", nil))
		require.True(t, res.OK())
		assert.Contains(t, res.Content(), "ember_wealth")
	})

	assert.Equal(t, 0, state.SectionCount())
	assert.Empty(t, state.ChartIDs())
}

func TestExecute_Rejections(t *testing.T) {
	renderer := &countingRenderer{}
	exec := newTestExecutor(t, fund.SampleAlphaAggressive, renderer)
	state := report.NewState(theme.DefaultThemeID)
	ctx := context.Background()

	tests := []struct {
		name string
		call report.ToolCall
		code report.ErrorCode
	}{
		{"unknown tool", call(1, "delete_everything", nil), report.CodeUnknownTool},
		{"bad arguments", call(2, "add_section", map[string]interface{}{"body": "no title"}), report.CodeInvalidArguments},
		{"chart not available", call(3, "generate_chart", map[string]interface{}{"chart_id": "income_chart"}), report.CodePreconditionFailed},
		{"forward reference", call(4, "add_section", map[string]interface{}{"title": "Risk", "chart_ref": "drawdown_chart"}), report.CodePreconditionFailed},
		{"unknown theme", call(5, "set_theme", map[string]interface{}{"theme_id": "neon"}), report.CodePreconditionFailed},
		{"finalize empty", call(6, "finalize_report", map[string]interface{}{"title": "Q3"}), report.CodePreconditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := exec.Execute(ctx, state, tt.call)
			require.False(t, res.OK())
			assert.Equal(t, tt.code, res.Err.Code)
			assert.Equal(t, report.OutcomeRejected, res.Call.Outcome)
			assert.Equal(t, tt.code, res.Call.ErrorCode)

			var payload map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(res.Content()), &payload))
			assert.Equal(t, true, payload["error"])
			assert.Equal(t, string(tt.code), payload["code"])
		})
	}

	assert.Equal(t, int32(0), renderer.calls.Load())
	assert.Equal(t, report.Structure{Sections: []report.Section{}, ChartIDs: []string{}}, state.Structure())
}

func TestExecute_ForwardReferenceThenSuccess(t *testing.T) {
	exec := newTestExecutor(t, fund.SampleAlphaAggressive, &countingRenderer{})
	state := report.NewState(theme.DefaultThemeID)
	ctx := context.Background()
	section := map[string]interface{}{"title": "Risk Review", "chart_ref": "drawdown_chart"}

	res := exec.Execute(ctx, state, call(1, "add_section", section))
	require.False(t, res.OK())
	assert.Equal(t, report.ConstraintChartGenerated, res.Err.Constraint)

	res = exec.Execute(ctx, state, call(2, "generate_chart", map[string]interface{}{"chart_id": "drawdown_chart"}))
	require.True(t, res.OK())

	res = exec.Execute(ctx, state, call(3, "add_section", section))
	require.True(t, res.OK())
	assert.Equal(t, []report.Section{{Title: "Risk Review", ChartRef: "drawdown_chart"}}, state.Sections())

	res = exec.Execute(ctx, state, call(4, "finalize_report", map[string]interface{}{"title": "Q3 Risk Report"}))
	require.True(t, res.OK())
	assert.True(t, state.Complete())
	assert.Contains(t, res.Content(), `"terminal":true`)
}

func TestExecute_RenderFailure(t *testing.T) {
	exec := newTestExecutor(t, fund.SampleAlphaAggressive, &countingRenderer{fail: map[string]bool{"pie_chart": true}})
	state := report.NewState(theme.DefaultThemeID)

	res := exec.Execute(context.Background(), state, call(1, "generate_chart", map[string]interface{}{"chart_id": "pie_chart"}))
	require.False(t, res.OK())
	assert.Equal(t, report.CodeRenderFailed, res.Err.Code)
	assert.Equal(t, report.OutcomeErrored, res.Call.Outcome)
	assert.False(t, state.HasChart("pie_chart"))

	var re *render.RenderError
	assert.True(t, errors.As(res.Err, &re))
}

func TestExecute_UnknownFund(t *testing.T) {
	exec := newTestExecutor(t, "ghost_fund", &countingRenderer{})
	res := exec.Execute(context.Background(), report.NewState(theme.DefaultThemeID), call(1, "analyze_fund", nil))
	require.False(t, res.OK())
	assert.Equal(t, report.CodeDataUnavailable, res.Err.Code)
	assert.True(t, errors.Is(res.Err, fund.ErrNotFound))
}

func TestExecute_Prerendered(t *testing.T) {
	renderer := &countingRenderer{}
	exec := newTestExecutor(t, fund.SampleAlphaAggressive, renderer).WithPrerendered(map[string]report.ChartArtifact{
		"line_chart": {ID: "line_chart", Type: "line_chart", Handle: "pre://line_chart"},
	}, nil)
	state := report.NewState(theme.DefaultThemeID)

	res := exec.Execute(context.Background(), state, call(1, "generate_chart", map[string]interface{}{"chart_id": "line_chart"}))
	require.True(t, res.OK())
	artifact, ok := state.Chart("line_chart")
	require.True(t, ok)
	assert.Equal(t, "pre://line_chart", artifact.Handle)
	assert.Equal(t, int32(0), renderer.calls.Load())
}

func TestExecute_PrerenderFailure(t *testing.T) {
	renderer := &countingRenderer{}
	exec := newTestExecutor(t, fund.SampleAlphaAggressive, renderer).WithPrerendered(nil, map[string]error{
		"drawdown_chart": errors.New("canvas exploded"),
	})
	state := report.NewState(theme.DefaultThemeID)

	res := exec.Execute(context.Background(), state, call(1, "generate_chart", map[string]interface{}{"chart_id": "drawdown_chart"}))
	require.False(t, res.OK())
	assert.Equal(t, report.CodeRenderFailed, res.Err.Code)
	assert.Contains(t, res.Err.Message, "canvas exploded")
	assert.Empty(t, state.ChartIDs())
	assert.Equal(t, int32(0), renderer.calls.Load())

	// preconditions still run first
	res = exec.Execute(context.Background(), state, call(2, "generate_chart", map[string]interface{}{"chart_id": "income_chart"}))
	require.False(t, res.OK())
	assert.Equal(t, report.CodePreconditionFailed, res.Err.Code)
}

func TestExecute_DoesNotAliasArguments(t *testing.T) {
	exec := newTestExecutor(t, fund.SampleAlphaAggressive, &countingRenderer{})
	args := map[string]interface{}{"title": "Intro"}
	res := exec.Execute(context.Background(), report.NewState(theme.DefaultThemeID), call(1, "add_section", args))
	require.True(t, res.OK())

	args["title"] = "Changed"
	assert.Equal(t, "Intro", res.Call.Arguments["title"])
}

func TestReject(t *testing.T) {
	exec := newTestExecutor(t, fund.SampleAlphaAggressive, &countingRenderer{})
	te := report.NewToolError(report.CodeInvalidArguments, "add_section", "", "arguments are not valid JSON")

	res := exec.Reject(call(3, "add_section", nil), te)
	require.False(t, res.OK())
	assert.Equal(t, report.OutcomeRejected, res.Call.Outcome)
	assert.Equal(t, report.CodeInvalidArguments, res.Call.ErrorCode)
	assert.Equal(t, "add_section", string(res.Tool.Name))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.Content()), &payload))
	assert.Equal(t, true, payload["error"])
	assert.Equal(t, "invalid_arguments", payload["code"])
}

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Defaults(t *testing.T) {
	st := NewState("default")

	assert.Equal(t, "default", st.ThemeID())
	assert.Empty(t, st.Sections())
	assert.Empty(t, st.ChartIDs())
	assert.False(t, st.Terminal())
	assert.False(t, st.Complete())
}

func TestState_AddSection(t *testing.T) {
	t.Run("should reject forward chart references without mutation", func(t *testing.T) {
		st := NewState("default")

		err := st.Apply(AddSection{Section: Section{Title: "Risk Review", ChartRef: "drawdown_chart"}})

		require.Error(t, err)
		assert.True(t, IsCode(err, CodePreconditionFailed))
		te, ok := AsToolError(err)
		require.True(t, ok)
		assert.Equal(t, ConstraintChartGenerated, te.Constraint)
		assert.Equal(t, 0, st.SectionCount())
	})

	t.Run("should accept the same section once the chart exists", func(t *testing.T) {
		st := NewState("default")
		section := AddSection{Section: Section{Title: "Risk Review", ChartRef: "drawdown_chart"}}

		require.Error(t, st.Apply(section))
		require.NoError(t, st.Apply(AddChart{Artifact: ChartArtifact{ID: "drawdown_chart", Type: "drawdown_chart"}}))
		require.NoError(t, st.Apply(section))

		assert.Equal(t, []Section{{Title: "Risk Review", ChartRef: "drawdown_chart"}}, st.Sections())
	})

	t.Run("should keep insertion order", func(t *testing.T) {
		st := NewState("default")
		for _, title := range []string{"Executive Summary", "Performance", "Outlook"} {
			require.NoError(t, st.Apply(AddSection{Section: Section{Title: title}}))
		}

		sections := st.Sections()
		require.Len(t, sections, 3)
		assert.Equal(t, "Executive Summary", sections[0].Title)
		assert.Equal(t, "Performance", sections[1].Title)
		assert.Equal(t, "Outlook", sections[2].Title)
	})

	t.Run("should reject blank titles", func(t *testing.T) {
		st := NewState("default")
		err := st.Apply(AddSection{Section: Section{Title: "  "}})
		assert.True(t, IsCode(err, CodePreconditionFailed))
	})
}

func TestState_AddChart(t *testing.T) {
	st := NewState("default")
	artifact := ChartArtifact{ID: "histogram", Type: "histogram", Handle: "/tmp/histogram.svg"}

	require.NoError(t, st.Apply(AddChart{Artifact: artifact}))
	err := st.Apply(AddChart{Artifact: artifact})

	require.Error(t, err)
	te, _ := AsToolError(err)
	assert.Equal(t, ConstraintChartNotGenerated, te.Constraint)
	assert.Equal(t, []string{"histogram"}, st.ChartIDs())

	got, ok := st.Chart("histogram")
	assert.True(t, ok)
	assert.Equal(t, artifact, got)
}

func TestState_Finalize(t *testing.T) {
	t.Run("should reject finalize with zero sections", func(t *testing.T) {
		st := NewState("default")

		err := st.Apply(Finalize{Title: "Q3 Report"})

		assert.True(t, IsCode(err, CodePreconditionFailed))
		assert.False(t, st.Terminal())
		assert.Empty(t, st.Title())
	})

	t.Run("should freeze the state after finalize", func(t *testing.T) {
		st := NewState("default")
		require.NoError(t, st.Apply(AddSection{Section: Section{Title: "Summary"}}))
		require.NoError(t, st.Apply(Finalize{Title: "Q3 Report", Subtitle: "Quarterly"}))

		assert.True(t, st.Terminal())
		assert.True(t, st.Complete())
		assert.Equal(t, "Q3 Report", st.Title())

		for _, m := range []Mutation{
			AddSection{Section: Section{Title: "Late"}},
			AddChart{Artifact: ChartArtifact{ID: "pie_chart"}},
			SetTheme{ThemeID: "ember_wealth"},
			Finalize{Title: "Again"},
		} {
			err := st.Apply(m)
			te, ok := AsToolError(err)
			require.True(t, ok)
			assert.Equal(t, ConstraintNotTerminal, te.Constraint)
		}

		assert.Equal(t, 1, st.SectionCount())
		assert.Equal(t, "default", st.ThemeID())
		assert.Equal(t, "Q3 Report", st.Title())
	})
}

func TestState_StructureIgnoresTheme(t *testing.T) {
	build := func(theme string) *State {
		st := NewState("default")
		require.NoError(t, st.Apply(SetTheme{ThemeID: theme}))
		require.NoError(t, st.Apply(AddChart{Artifact: ChartArtifact{ID: "line_chart"}}))
		require.NoError(t, st.Apply(AddSection{Section: Section{Title: "Performance", ChartRef: "line_chart"}}))
		require.NoError(t, st.Apply(Finalize{Title: "Report"}))
		return st
	}

	a := build("alpine_capital")
	b := build("ember_wealth")

	assert.Equal(t, a.Structure(), b.Structure())
	assert.NotEqual(t, a.Snapshot().ThemeID, b.Snapshot().ThemeID)
}

func TestState_Clone(t *testing.T) {
	st := NewState("default")
	require.NoError(t, st.Apply(AddSection{Section: Section{Title: "One"}}))

	clone := st.Clone()
	require.NoError(t, clone.Apply(AddSection{Section: Section{Title: "Two"}}))

	assert.Equal(t, 1, st.SectionCount())
	assert.Equal(t, 2, clone.SectionCount())
}

func TestToolError_Payload(t *testing.T) {
	err := Precondition("finalize_report", ConstraintSectionsNonEmpty, "cannot finalize a report with no sections")

	payload := err.Payload()
	assert.Equal(t, true, payload["error"])
	assert.Equal(t, "precondition_failed", payload["code"])
	assert.Equal(t, ConstraintSectionsNonEmpty, payload["constraint"])
	assert.Equal(t, OutcomeRejected, err.Outcome())

	renderErr := NewToolError(CodeRenderFailed, "generate_chart", "", "boom")
	assert.Equal(t, OutcomeErrored, renderErr.Outcome())
}

// Package report holds the per-run report accumulator and the tool error taxonomy.
//
// Invariants:
// - Section order is insertion order and never changes.
// - A section's chart reference names a chart generated earlier in the same state.
// - The state becomes terminal through exactly one finalize, and only with sections.
// - A failed Apply leaves the state untouched.
//
// Usage:
//
//	st := report.NewState("default")
//	_ = st.Apply(report.AddChart{Artifact: report.ChartArtifact{ID: "drawdown_chart"}})
//	_ = st.Apply(report.AddSection{Section: report.Section{Title: "Risk Review", ChartRef: "drawdown_chart"}})
//	_ = st.Apply(report.Finalize{Title: "Q3 Risk Report"})
package report

// Package toolexecutor dispatches report tool calls for both the live
// orchestration loop and the replayer.
//
// Invariants:
// - Every call goes lookup, argument validation, preconditions, handler, state application.
// - A failed call leaves the report state unchanged and yields a structured ToolError.
// - The fund profile is loaded once per executor, so a run sees consistent data.
//
// Usage:
//
//	exec, err := toolexecutor.New(toolexecutor.Config{
//		FundID:   "alpha_aggressive",
//		Funds:    funds,
//		Themes:   themes,
//		Renderer: charts,
//	})
//	res := exec.Execute(ctx, state, report.ToolCall{Tool: "list_available_charts"})
//	fmt.Println(res.Content())
package toolexecutor

// Package orchestrator runs the live path: a language model builds a fund
// report by calling the catalog tools turn by turn.
//
// Each turn sends the conversation and the tool definitions to the model,
// applies the returned calls one at a time in the order received, and feeds
// every result back, including structured tool errors, so the model can
// correct itself. A run ends as:
//
//   - complete, after one successful finalize_report. The run is recorded
//     as a plan.
//   - incomplete, when the turn budget or the finalize correction budget is
//     spent, or the context is cancelled. The partial report is returned.
//   - aborted, when the model transport fails permanently or keeps failing
//     after MaxTransportAttempts with exponential backoff.
package orchestrator

// Package replay re-executes a saved plan against a fund's current data
// without a model.
//
// Chart rendering is the only concurrent step: every generate_chart entry
// is drawn ahead of time through a bounded errgroup. The entries are then
// applied one by one in recorded order, so section order always matches the
// recording. Any failed entry stops the replay with a *ReplayError naming
// its index; no partial report is returned.
package replay

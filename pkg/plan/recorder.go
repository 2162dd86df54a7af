package plan

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/amatiych/llm-work/pkg/catalog"
	"github.com/amatiych/llm-work/pkg/report"
)

// ErrIncomplete is returned when recording a run that did not finalize.
var ErrIncomplete = errors.New("run is not complete")

// Record turns the call log of a completed run into a plan. Only successful
// mutate and terminal calls become entries, re-sequenced from 1. Everything
// else goes to the audit log.
func Record(runID, fundID string, log []report.ToolCall, state *report.State) (*Plan, error) {
	if state == nil || !state.Complete() {
		return nil, ErrIncomplete
	}

	p := &Plan{
		id:        uuid.New().String(),
		runID:     runID,
		fundID:    fundID,
		title:     state.Title(),
		themeID:   state.ThemeID(),
		createdAt: time.Now().UTC(),
	}

	for _, call := range log {
		if call.Outcome == report.OutcomeOK && replayable(call.Tool) {
			entry := call.Clone()
			entry.Seq = len(p.entries) + 1
			entry.ID = ""
			p.entries = append(p.entries, entry)
			continue
		}
		p.auditLog = append(p.auditLog, call.Clone())
	}

	if len(p.entries) == 0 || p.entries[len(p.entries)-1].Tool != string(catalog.FinalizeReport) {
		return nil, ErrIncomplete
	}

	return p, nil
}

func replayable(tool string) bool {
	kind, ok := catalog.KindOf(tool)
	return ok && kind != catalog.KindQuery
}

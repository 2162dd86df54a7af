package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/amatiych/llm-work/pkg/report"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateName checks a plan name. Names double as file names and keys.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q must match %s", ErrInvalidName, name, namePattern.String())
	}
	return nil
}

// Plan is the ordered list of successful mutating and terminal calls of a
// completed run. It is immutable; accessors return copies.
type Plan struct {
	id        string
	name      string
	runID     string
	fundID    string
	title     string
	themeID   string
	entries   []report.ToolCall
	auditLog  []report.ToolCall
	createdAt time.Time
}

// Summary is the listing form of a stored plan.
type Summary struct {
	Name      string    `json:"name"`
	ID        string    `json:"id"`
	FundID    string    `json:"fund_id"`
	Title     string    `json:"title"`
	Steps     int       `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Plan) ID() string           { return p.id }
func (p *Plan) Name() string         { return p.name }
func (p *Plan) RunID() string        { return p.runID }
func (p *Plan) FundID() string       { return p.fundID }
func (p *Plan) Title() string        { return p.title }
func (p *Plan) ThemeID() string      { return p.themeID }
func (p *Plan) CreatedAt() time.Time { return p.createdAt }
func (p *Plan) Len() int             { return len(p.entries) }

// Entries returns the replayable calls in recorded order.
func (p *Plan) Entries() []report.ToolCall {
	return cloneCalls(p.entries)
}

// AuditLog returns the query calls and failed attempts of the recorded run.
// They are kept for inspection and never executed on replay.
func (p *Plan) AuditLog() []report.ToolCall {
	return cloneCalls(p.auditLog)
}

// WithName returns a copy of the plan carrying name.
func (p *Plan) WithName(name string) (*Plan, error) {
	if p == nil {
		return nil, ErrNoPlan
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	c := *p
	c.name = name
	c.entries = cloneCalls(p.entries)
	c.auditLog = cloneCalls(p.auditLog)
	return &c, nil
}

// Summary returns the listing form of the plan.
func (p *Plan) Summary() Summary {
	return Summary{
		Name:      p.name,
		ID:        p.id,
		FundID:    p.fundID,
		Title:     p.title,
		Steps:     len(p.entries),
		CreatedAt: p.createdAt,
	}
}

type planDocument struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	RunID     string            `json:"run_id,omitempty"`
	FundID    string            `json:"fund_id"`
	Title     string            `json:"title"`
	ThemeID   string            `json:"theme,omitempty"`
	Entries   []report.ToolCall `json:"entries"`
	AuditLog  []report.ToolCall `json:"audit_log,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// MarshalJSON encodes the plan for storage.
func (p *Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(planDocument{
		ID:        p.id,
		Name:      p.name,
		RunID:     p.runID,
		FundID:    p.fundID,
		Title:     p.title,
		ThemeID:   p.themeID,
		Entries:   p.entries,
		AuditLog:  p.auditLog,
		CreatedAt: p.createdAt,
	})
}

// UnmarshalJSON decodes a stored plan and checks that every entry is a
// replayable call.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var doc planDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Entries) == 0 {
		return fmt.Errorf("plan %q has no entries", doc.ID)
	}
	for i, e := range doc.Entries {
		if !replayable(e.Tool) {
			return fmt.Errorf("plan %q entry %d: %q is not a replayable tool", doc.ID, i, e.Tool)
		}
	}

	*p = Plan{
		id:        doc.ID,
		name:      doc.Name,
		runID:     doc.RunID,
		fundID:    doc.FundID,
		title:     doc.Title,
		themeID:   doc.ThemeID,
		entries:   cloneCalls(doc.Entries),
		auditLog:  cloneCalls(doc.AuditLog),
		createdAt: doc.CreatedAt,
	}
	return nil
}

func cloneCalls(calls []report.ToolCall) []report.ToolCall {
	if calls == nil {
		return nil
	}
	out := make([]report.ToolCall, len(calls))
	for i, c := range calls {
		out[i] = c.Clone()
	}
	return out
}

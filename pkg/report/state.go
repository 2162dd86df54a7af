package report

import "strings"

// Mutation is the closed set of changes a successful tool call can make.
type Mutation interface {
	tool() string
}

// AddChart records a rendered chart artifact.
type AddChart struct {
	Artifact ChartArtifact
}

// AddSection appends a section after the existing ones.
type AddSection struct {
	Section Section
}

// SetTheme selects the branding theme by id.
type SetTheme struct {
	ThemeID string
}

// Finalize titles the report and makes the state terminal.
type Finalize struct {
	Title    string
	Subtitle string
}

func (AddChart) tool() string   { return "generate_chart" }
func (AddSection) tool() string { return "add_section" }
func (SetTheme) tool() string   { return "set_theme" }
func (Finalize) tool() string   { return "finalize_report" }

// State accumulates one run's report. It has a single owner and is not
// safe for concurrent mutation.
type State struct {
	sections   []Section
	charts     map[string]ChartArtifact
	chartOrder []string
	themeID    string
	title      string
	subtitle   string
	terminal   bool
	finalized  int
}

// NewState creates an empty state using defaultTheme until set_theme runs.
func NewState(defaultTheme string) *State {
	return &State{
		charts:  make(map[string]ChartArtifact),
		themeID: defaultTheme,
	}
}

// Check validates m against the current state without changing it.
func (s *State) Check(m Mutation) error {
	tool := m.tool()
	if s.terminal {
		return Precondition(tool, ConstraintNotTerminal, "report is already finalized")
	}

	switch mut := m.(type) {
	case AddChart:
		if mut.Artifact.ID == "" {
			return NewToolError(CodeInvalidArguments, tool, "", "chart id is required")
		}
		if _, exists := s.charts[mut.Artifact.ID]; exists {
			return Precondition(tool, ConstraintChartNotGenerated, "chart %q was already generated", mut.Artifact.ID)
		}
	case AddSection:
		if strings.TrimSpace(mut.Section.Title) == "" {
			return Precondition(tool, ConstraintSectionTitle, "section title cannot be empty")
		}
		if ref := mut.Section.ChartRef; ref != "" {
			if _, exists := s.charts[ref]; !exists {
				return Precondition(tool, ConstraintChartGenerated,
					"chart %q has not been generated yet; call generate_chart first", ref)
			}
		}
	case SetTheme:
		if strings.TrimSpace(mut.ThemeID) == "" {
			return NewToolError(CodeInvalidArguments, tool, "", "theme id is required")
		}
	case Finalize:
		if len(s.sections) == 0 {
			return Precondition(tool, ConstraintSectionsNonEmpty, "cannot finalize a report with no sections")
		}
		if strings.TrimSpace(mut.Title) == "" {
			return Precondition(tool, ConstraintReportTitle, "report title cannot be empty")
		}
	}

	return nil
}

// Apply validates and applies m. On error the state is unchanged.
func (s *State) Apply(m Mutation) error {
	if err := s.Check(m); err != nil {
		return err
	}

	switch mut := m.(type) {
	case AddChart:
		s.charts[mut.Artifact.ID] = mut.Artifact
		s.chartOrder = append(s.chartOrder, mut.Artifact.ID)
	case AddSection:
		s.sections = append(s.sections, mut.Section)
	case SetTheme:
		s.themeID = mut.ThemeID
	case Finalize:
		s.title = mut.Title
		s.subtitle = mut.Subtitle
		s.terminal = true
		s.finalized++
	}

	return nil
}

// Sections returns the sections in display order.
func (s *State) Sections() []Section {
	out := make([]Section, len(s.sections))
	copy(out, s.sections)
	return out
}

// SectionCount returns the number of sections added so far.
func (s *State) SectionCount() int {
	return len(s.sections)
}

// HasChart reports whether a chart id was generated in this state.
func (s *State) HasChart(id string) bool {
	_, ok := s.charts[id]
	return ok
}

// Chart returns the artifact for a generated chart.
func (s *State) Chart(id string) (ChartArtifact, bool) {
	a, ok := s.charts[id]
	return a, ok
}

// ChartIDs returns generated chart ids in generation order.
func (s *State) ChartIDs() []string {
	out := make([]string, len(s.chartOrder))
	copy(out, s.chartOrder)
	return out
}

// Charts returns generated artifacts in generation order.
func (s *State) Charts() []ChartArtifact {
	out := make([]ChartArtifact, 0, len(s.chartOrder))
	for _, id := range s.chartOrder {
		out = append(out, s.charts[id])
	}
	return out
}

func (s *State) ThemeID() string  { return s.themeID }
func (s *State) Title() string    { return s.title }
func (s *State) Subtitle() string { return s.subtitle }
func (s *State) Terminal() bool   { return s.terminal }

// Complete reports whether the state was reached by exactly one finalize.
func (s *State) Complete() bool {
	return s.terminal && s.finalized == 1 && len(s.sections) > 0
}

// Snapshot returns a copy of the full state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Title:    s.title,
		Subtitle: s.subtitle,
		ThemeID:  s.themeID,
		Sections: s.Sections(),
		Charts:   s.Charts(),
		Terminal: s.terminal,
	}
}

// Structure returns the theme-independent shape of the report.
func (s *State) Structure() Structure {
	return Structure{
		Title:    s.title,
		Subtitle: s.subtitle,
		Sections: s.Sections(),
		ChartIDs: s.ChartIDs(),
		Terminal: s.terminal,
	}
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State {
	c := &State{
		sections:   s.Sections(),
		charts:     make(map[string]ChartArtifact, len(s.charts)),
		chartOrder: s.ChartIDs(),
		themeID:    s.themeID,
		title:      s.title,
		subtitle:   s.subtitle,
		terminal:   s.terminal,
		finalized:  s.finalized,
	}
	for id, a := range s.charts {
		c.charts[id] = a
	}
	return c
}

package report

// Outcome is the result class of a tool call in the run log
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeRejected Outcome = "rejected"
	OutcomeErrored  Outcome = "errored"
)

// ToolCall is one invocation of a catalog tool within a run
type ToolCall struct {
	Seq       int                    `json:"seq"`
	ID        string                 `json:"id,omitempty"`
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
	Outcome   Outcome                `json:"outcome,omitempty"`
	ErrorCode ErrorCode              `json:"error_code,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Clone returns a deep copy of the call arguments and metadata.
func (c ToolCall) Clone() ToolCall {
	c.Arguments = CloneArguments(c.Arguments)
	return c
}

// Section is a titled block of the report, optionally anchored to a chart
type Section struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	ChartRef string `json:"chart,omitempty"`
}

// ChartArtifact is a rendered chart tracked by the report state.
// Handle is opaque and owned by the renderer (a file path for the SVG renderer).
type ChartArtifact struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	SeriesRef string `json:"series_ref"`
	Handle    string `json:"handle"`
}

// Snapshot is an immutable view of a report state.
type Snapshot struct {
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle,omitempty"`
	ThemeID  string          `json:"theme"`
	Sections []Section       `json:"sections"`
	Charts   []ChartArtifact `json:"charts"`
	Terminal bool            `json:"terminal"`
}

// Structure is the theme-independent shape of a report used to compare runs.
type Structure struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Sections []Section `json:"sections"`
	ChartIDs []string  `json:"charts"`
	Terminal bool      `json:"terminal"`
}

// CloneArguments deep-copies a decoded JSON argument map.
func CloneArguments(args map[string]interface{}) map[string]interface{} {
	if args == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return CloneArguments(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

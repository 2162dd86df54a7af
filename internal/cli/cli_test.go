package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amatiych/llm-work/pkg/llm"
)

// scriptedProvider answers each model call with the next batch of tool calls.
type scriptedProvider struct {
	mu    sync.Mutex
	turns [][]llm.ToolCall
	calls int
}

func (p *scriptedProvider) Provider() string { return "scripted" }

func (p *scriptedProvider) Call(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.calls
	p.calls++
	if n >= len(p.turns) {
		return &llm.Response{Content: "done", Usage: &llm.Usage{InputTokens: 1}}, nil
	}
	calls := make([]llm.ToolCall, len(p.turns[n]))
	for i, tc := range p.turns[n] {
		tc.ID = fmt.Sprintf("toolu_%d_%d", n, i)
		calls[i] = tc
	}
	return &llm.Response{ToolCalls: calls, Usage: &llm.Usage{InputTokens: 100, OutputTokens: 10}}, nil
}

func riskReportScript() *scriptedProvider {
	return &scriptedProvider{turns: [][]llm.ToolCall{
		{{Name: "analyze_fund", Arguments: map[string]interface{}{}}, {Name: "list_available_charts", Arguments: map[string]interface{}{}}},
		{{Name: "generate_chart", Arguments: map[string]interface{}{"chart_id": "drawdown_chart"}}},
		{{Name: "add_section", Arguments: map[string]interface{}{"title": "Risk Review", "body": "Drawdowns stayed contained.", "chart_ref": "drawdown_chart"}}},
		{{Name: "finalize_report", Arguments: map[string]interface{}{"title": "Q3 Risk Report"}}},
	}}
}

func useProvider(t *testing.T, p llm.Provider) {
	t.Helper()
	orig := newProvider
	newProvider = func(profile llm.Profile) (llm.Provider, error) { return p, nil }
	t.Cleanup(func() { newProvider = orig })
}

// writeTestConfig writes a config rooted in a temp data dir and returns
// its path and the data dir.
func writeTestConfig(t *testing.T, extra map[string]interface{}) (string, string) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	dir := t.TempDir()
	cfg := map[string]interface{}{
		"data_dir": dir,
		"ai": map[string]interface{}{
			"profiles": []map[string]interface{}{
				{"id": "anthropic", "provider": "anthropic", "api_key": "sk-ant-test", "priority": 1},
			},
		},
		"storage": map[string]interface{}{"backend": "file"},
		"logging": map[string]interface{}{"level": "error", "format": "json"},
		"orchestrator": map[string]interface{}{
			"backoff_base_ms": 1,
			"max_backoff_ms":  5,
		},
	}
	for k, v := range extra {
		cfg[k] = v
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "fundreport.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path, dir
}

func execute(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := GetRootCmd()
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/plan"
	"github.com/amatiych/llm-work/pkg/render"
	"github.com/amatiych/llm-work/pkg/replay"
	"github.com/amatiych/llm-work/pkg/report"
	"github.com/amatiych/llm-work/pkg/theme"
	"github.com/amatiych/llm-work/pkg/toolexecutor"
)

func testLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.ErrorLevel)
}

func TestJob_Validate(t *testing.T) {
	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{"quarterly descriptor", Job{Name: "q_risk", Schedule: "@quarterly", Plan: "q3_risk"}, false},
		{"five field", Job{Name: "monthly", Schedule: "0 6 1 * *", Plan: "q3_risk"}, false},
		{"with timezone", Job{Name: "ny", Schedule: "0 6 1 * *", TZ: "America/New_York", Plan: "q3_risk"}, false},
		{"bad expression", Job{Name: "bad", Schedule: "every day", Plan: "q3_risk"}, true},
		{"six fields", Job{Name: "secs", Schedule: "0 0 6 1 * *", Plan: "q3_risk"}, true},
		{"bad timezone", Job{Name: "tz", Schedule: "@daily", TZ: "Mars/Base", Plan: "q3_risk"}, true},
		{"empty schedule", Job{Name: "empty", Plan: "q3_risk"}, true},
		{"bad plan name", Job{Name: "p", Schedule: "@daily", Plan: "../x"}, true},
		{"bad job name", Job{Name: "a b", Schedule: "@daily", Plan: "q3_risk"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJob_NextRun(t *testing.T) {
	job := Job{Name: "q", Schedule: "@quarterly", Plan: "p"}
	from := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	next, err := job.NextRun(from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestService_AddRemoveList(t *testing.T) {
	s, err := NewService(Config{
		Jobs:   []Job{{Name: "b_job", Schedule: "@monthly", Plan: "p"}},
		Run:    func(ctx context.Context, job Job) (string, error) { return "", nil },
		Logger: testLogger(t),
	})
	require.NoError(t, err)

	require.NoError(t, s.Add(Job{Name: "a_job", Schedule: "@quarterly", Plan: "p"}))
	assert.Error(t, s.Add(Job{Name: "a_job", Schedule: "@daily", Plan: "p"}))
	assert.Error(t, s.Add(Job{Name: "c_job", Schedule: "nonsense", Plan: "p"}))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a_job", list[0].Job.Name)
	assert.NotNil(t, list[0].State.NextRunAt)

	require.NoError(t, s.Remove("a_job"))
	assert.Error(t, s.Remove("a_job"))
	assert.Len(t, s.List(), 1)

	require.NoError(t, s.Stop(context.Background()))
	assert.Error(t, s.Add(Job{Name: "late", Schedule: "@daily", Plan: "p"}))
}

func TestService_RunNowTracksState(t *testing.T) {
	fail := true
	s, err := NewService(Config{
		Jobs: []Job{{Name: "job", Schedule: "@daily", Plan: "p"}},
		Run: func(ctx context.Context, job Job) (string, error) {
			if fail {
				return "", errors.New("plan not found")
			}
			return "/out/report.html", nil
		},
		Logger: testLogger(t),
	})
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, s.RunNow(ctx, "job"))
	assert.Error(t, s.RunNow(ctx, "job"))
	st, ok := s.Get("job")
	require.True(t, ok)
	assert.Equal(t, statusError, st.State.LastStatus)
	assert.Equal(t, 2, st.State.ConsecutiveErrors)
	assert.Equal(t, "plan not found", st.State.LastError)
	assert.Nil(t, st.State.RunningSince)

	fail = false
	require.NoError(t, s.RunNow(ctx, "job"))
	st, _ = s.Get("job")
	assert.Equal(t, statusOK, st.State.LastStatus)
	assert.Zero(t, st.State.ConsecutiveErrors)
	assert.Equal(t, "/out/report.html", st.State.LastOutput)
	assert.NotNil(t, st.State.LastRunAt)

	assert.Error(t, s.RunNow(ctx, "missing"))
}

func TestService_FiresOnSchedule(t *testing.T) {
	var runs atomic.Int32
	s, err := NewService(Config{
		Jobs: []Job{{Name: "fast", Schedule: "@every 1s", Plan: "p"}},
		Run: func(ctx context.Context, job Job) (string, error) {
			runs.Add(1)
			return "", nil
		},
		Logger: testLogger(t),
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestService_RequiresRunFunc(t *testing.T) {
	_, err := NewService(Config{})
	assert.Error(t, err)
}

type memRenderer struct{}

func (memRenderer) RenderChart(ctx context.Context, chartID string, args map[string]interface{}, p *fund.Profile) (report.ChartArtifact, error) {
	return report.ChartArtifact{ID: chartID, Type: chartID, Handle: "mem://" + chartID}, nil
}

func TestReplayRunner(t *testing.T) {
	ctx := context.Background()
	themes, err := theme.NewRegistry(zerolog.Nop(), "")
	require.NoError(t, err)
	tools := toolexecutor.Config{
		FundID:   fund.SampleAlphaAggressive,
		Funds:    fund.NewRegistry(zerolog.Nop()),
		Themes:   themes,
		Renderer: memRenderer{},
		Logger:   zerolog.Nop(),
	}

	exec, err := toolexecutor.New(tools)
	require.NoError(t, err)
	state := report.NewState(theme.DefaultThemeID)
	var log []report.ToolCall
	for i, c := range []report.ToolCall{
		{Tool: "add_section", Arguments: map[string]interface{}{"title": "Overview", "body": "Quarter in review."}},
		{Tool: "finalize_report", Arguments: map[string]interface{}{"title": "Quarterly Review"}},
	} {
		c.Seq = i + 1
		log = append(log, exec.Execute(ctx, state, c).Call)
	}
	p, err := plan.Record("run-1", fund.SampleAlphaAggressive, log, state)
	require.NoError(t, err)

	store, err := plan.NewFileStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "quarterly", p))

	replayer, err := replay.New(replay.Config{
		Tools:     tools,
		Documents: render.NewHTMLDocumentRenderer(),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	outDir := t.TempDir()
	run := ReplayRunner(store, replayer, outDir)

	path, err := run(ctx, Job{Name: "q_job", Plan: "quarterly", Theme: "alpine_capital"})
	require.NoError(t, err)
	assert.Equal(t, outDir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".html"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Quarterly Review")

	_, err = run(ctx, Job{Name: "q_job", Plan: "missing"})
	assert.ErrorIs(t, err, plan.ErrNotFound)
}

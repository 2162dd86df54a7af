package observability

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAudit(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestAuditLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "audit.log")
	require.NoError(t, InitAuditLogger(path))
	t.Cleanup(func() { CloseAuditLogger() })

	ctx := context.Background()
	RecordRunAudit(ctx, "run-1", "alpha_aggressive", "complete", map[string]interface{}{"turns": 3})
	RecordPlanAudit(ctx, "saved", "q3_risk", true, nil)
	RecordReplayAudit(ctx, "run-2", "q3_risk", false, nil)
	RecordScheduleAudit(ctx, "quarterly", "q3_risk", true, nil)
	require.NoError(t, CloseAuditLogger())

	events := readAudit(t, path)
	require.Len(t, events, 4)

	assert.Equal(t, AuditRun, events[0]["type"])
	assert.Equal(t, "run:finished", events[0]["action"])
	assert.Equal(t, "complete", events[0]["status"])
	assert.Equal(t, "alpha_aggressive", events[0]["subject"])
	assert.Equal(t, float64(3), events[0]["metadata"].(map[string]interface{})["turns"])

	assert.Equal(t, "plan:saved", events[1]["action"])
	assert.Equal(t, "success", events[1]["status"])
	assert.Equal(t, "failure", events[2]["status"])
	assert.Equal(t, "quarterly", events[3]["actor"])
}

func TestAuditLogger_DiscardsUntilInitialized(t *testing.T) {
	require.NoError(t, CloseAuditLogger())
	assert.NotPanics(t, func() {
		RecordPlanAudit(context.Background(), "deleted", "q3_risk", true, nil)
	})
}

package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amatiych/llm-work/pkg/fund"
)

func TestScheduleCommands(t *testing.T) {
	outDir := t.TempDir()
	cfgPath, _ := writeTestConfig(t, map[string]interface{}{
		"schedules": []map[string]interface{}{
			{"name": "quarterly", "schedule": "0 6 1 */3 *", "tz": "UTC", "plan": "q3_risk", "output_dir": outDir},
		},
	})
	useProvider(t, riskReportScript())

	out, err := execute(t, cfgPath, "schedule", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "quarterly: plan q3_risk (0 6 1 */3 *) next ")

	_, err = execute(t, cfgPath, "schedule", "run", "quarterly")
	require.Error(t, err, "plan does not exist yet")

	_, err = execute(t, cfgPath, "run", "--fund", fund.SampleAlphaAggressive, "--save", "q3_risk")
	require.NoError(t, err)

	out, err = execute(t, cfgPath, "schedule", "run", "quarterly")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Job quarterly finished")

	docs, err := filepath.Glob(filepath.Join(outDir, "quarterly_"+fund.SampleAlphaAggressive+"_*.html"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, out, "Document: "+docs[0])

	_, err = execute(t, cfgPath, "schedule", "run", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job not found")
}

func TestScheduleList_InvalidConfig(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, map[string]interface{}{
		"schedules": []map[string]interface{}{
			{"name": "broken", "schedule": "not cron", "plan": "q3_risk"},
		},
	})

	_, err := execute(t, cfgPath, "schedule", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

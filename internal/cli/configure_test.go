package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amatiych/llm-work/internal/config"
)

func TestConfigureCommand(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HOME", t.TempDir())
	cfgPath := filepath.Join(t.TempDir(), "fundreport.json")

	answers := strings.Join([]string{
		"sk-ant-api03-test",
		"",
		"",
		"html",
		"file",
		"warn",
	}, "\n") + "\n"

	cmd := GetRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "configure"})
	cmd.SetIn(strings.NewReader(answers))
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Configuration saved to: "+cfgPath)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.Len(t, cfg.AI.Profiles, 1)
	assert.Equal(t, "sk-ant-api03-test", cfg.AI.Profiles[0].APIKey)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestConfigureCommand_NoKeys(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	cmd := GetRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "fundreport.json"), "configure"})
	cmd.SetIn(strings.NewReader("\n\n"))
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one API key")
}

package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardRun(t *testing.T) {
	t.Run("collects answers", func(t *testing.T) {
		answers := strings.Join([]string{
			"not-a-key",      // rejected anthropic key
			"sk-ant-api03-x", // accepted
			"",               // skip openai
			"claude-opus-4-1",
			"pdf",
			"file",
			"debug",
		}, "\n") + "\n"
		out := &bytes.Buffer{}

		base := DefaultConfig()
		base.Storage.Path = "/old/plans.db"
		cfg, err := NewWizard(strings.NewReader(answers), out).Run(base)
		require.NoError(t, err)

		require.Len(t, cfg.AI.Profiles, 1)
		assert.Equal(t, "anthropic", cfg.AI.Profiles[0].Provider)
		assert.Equal(t, "sk-ant-api03-x", cfg.AI.Profiles[0].APIKey)
		assert.Equal(t, "claude-opus-4-1", cfg.Model)
		assert.Equal(t, "pdf", cfg.Render.Format)
		assert.Equal(t, "file", cfg.Storage.Backend)
		assert.Empty(t, cfg.Storage.Path)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Contains(t, out.String(), "Error: invalid Anthropic API key format")
		assert.Contains(t, out.String(), "Configuration complete!")
	})

	t.Run("keeps defaults on empty answers", func(t *testing.T) {
		answers := "\nsk-openai-key\n\n\n\n\n"
		cfg, err := NewWizard(strings.NewReader(answers), &bytes.Buffer{}).Run(nil)
		require.NoError(t, err)

		require.Len(t, cfg.AI.Profiles, 1)
		assert.Equal(t, "openai", cfg.AI.Profiles[0].Provider)
		assert.Equal(t, "claude-sonnet-4-5", cfg.Model)
		assert.Equal(t, "html", cfg.Render.Format)
		assert.Equal(t, "sqlite", cfg.Storage.Backend)
	})

	t.Run("requires a key", func(t *testing.T) {
		_, err := NewWizard(strings.NewReader("\n\n"), &bytes.Buffer{}).Run(nil)
		assert.Error(t, err)
	})
}

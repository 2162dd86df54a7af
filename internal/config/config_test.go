package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amatiych/llm-work/pkg/schedule"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.AI.Profiles = []AIProfile{
		{ID: "primary", Provider: "anthropic", APIKey: "sk-ant-test123", Priority: 1},
	}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Model)
	assert.Equal(t, 10, cfg.Orchestrator.MaxTurns)
	assert.Equal(t, 3, cfg.Orchestrator.MaxFinalizeCorrections)
	assert.Equal(t, 3, cfg.Orchestrator.MaxTransportAttempts)
	assert.Equal(t, "default", cfg.Orchestrator.DefaultTheme)
	assert.Equal(t, 4, cfg.Replay.RenderConcurrency)
	assert.Equal(t, "html", cfg.Render.Format)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Schedules)

	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown provider", func(c *Config) { c.AI.Profiles[0].Provider = "gemini" }, "invalid provider"},
		{"bad anthropic key", func(c *Config) { c.AI.Profiles[0].APIKey = "abc" }, "sk-ant-"},
		{"missing profile id", func(c *Config) { c.AI.Profiles[0].ID = "" }, "ID is required"},
		{"empty model", func(c *Config) { c.Model = " " }, "model is required"},
		{"zero turns", func(c *Config) { c.Orchestrator.MaxTurns = 0 }, "max_turns"},
		{"negative corrections", func(c *Config) { c.Orchestrator.MaxFinalizeCorrections = -1 }, "max_finalize_corrections"},
		{"shrinking backoff", func(c *Config) { c.Orchestrator.BackoffMultiplier = 0.5 }, "backoff_multiplier"},
		{"bad format", func(c *Config) { c.Render.Format = "docx" }, "render format"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "postgres" }, "storage backend"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "log level"},
		{"bad schedule", func(c *Config) {
			c.Schedules = []schedule.Job{{Name: "q", Schedule: "whenever", Plan: "q3"}}
		}, "schedule 0"},
		{"duplicate schedule", func(c *Config) {
			c.Schedules = []schedule.Job{
				{Name: "q", Schedule: "@quarterly", Plan: "q3"},
				{Name: "q", Schedule: "@monthly", Plan: "q3"},
			}
		}, "duplicate name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Render.Format = "docx"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render format")
	assert.Contains(t, err.Error(), "log level")
}

func TestActiveProfile(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		cfg := DefaultConfig()
		_, err := cfg.ActiveProfile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no AI credentials")
	})

	t.Run("lowest priority with a key wins", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AI.Profiles = []AIProfile{
			{ID: "backup", Provider: "openai", APIKey: "sk-backup", Priority: 2},
			{ID: "keyless", Provider: "anthropic", Priority: 0},
			{ID: "main", Provider: "anthropic", APIKey: "sk-ant-main", Priority: 1, BaseURL: "http://proxy"},
		}
		p, err := cfg.ActiveProfile()
		require.NoError(t, err)
		assert.Equal(t, "main", p.ID)
		assert.Equal(t, "anthropic", p.Provider)
		assert.Equal(t, "http://proxy", p.BaseURL)
	})
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	base, maxDelay := cfg.Orchestrator.Backoff()
	assert.Equal(t, time.Second, base)
	assert.Equal(t, 30*time.Second, maxDelay)
	assert.Equal(t, 2*time.Minute, cfg.Orchestrator.TurnTimeout())
	assert.Equal(t, 10*time.Minute, cfg.Orchestrator.RunTimeout())
	assert.Equal(t, 2*time.Minute, cfg.Replay.Timeout())
}

func TestLoggerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.File = "/var/log/fundreport.log"

	lc := cfg.LoggerConfig()
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, "/var/log/fundreport.log", lc.File)
	assert.True(t, lc.Redact)
	assert.Equal(t, 50, lc.MaxSize)
}

func TestConfigString(t *testing.T) {
	s := validConfig().String()
	assert.Contains(t, s, `"max_turns": 10`)
	assert.Contains(t, s, `"backend": "sqlite"`)
}

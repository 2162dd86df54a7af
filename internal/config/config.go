package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/amatiych/llm-work/internal/logger"
	"github.com/amatiych/llm-work/pkg/llm"
	"github.com/amatiych/llm-work/pkg/schedule"
)

// Config represents the main fundreport configuration
type Config struct {
	// Model access
	AI          AIConfig `json:"ai" mapstructure:"ai"`
	Model       string   `json:"model" mapstructure:"model"`
	Temperature float64  `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int      `json:"max_tokens" mapstructure:"max_tokens"`

	Orchestrator OrchestratorConfig `json:"orchestrator" mapstructure:"orchestrator"`
	Replay       ReplayConfig       `json:"replay" mapstructure:"replay"`
	Render       RenderConfig       `json:"render" mapstructure:"render"`
	Storage      StorageConfig      `json:"storage" mapstructure:"storage"`

	// Extra theme and fund JSON files, loaded on top of the built-ins
	ThemesDir string `json:"themes_dir" mapstructure:"themes_dir"`
	FundsDir  string `json:"funds_dir" mapstructure:"funds_dir"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	Logging   LoggingConfig  `json:"logging" mapstructure:"logging"`
	Metrics   MetricsConfig  `json:"metrics" mapstructure:"metrics"`
	Schedules []schedule.Job `json:"schedules" mapstructure:"schedules"`
}

// AIConfig holds AI provider configuration
type AIConfig struct {
	Profiles []AIProfile `json:"profiles" mapstructure:"profiles"`
}

// AIProfile represents an AI provider profile. Lower priority wins.
type AIProfile struct {
	ID       string `json:"id" mapstructure:"id"`
	Provider string `json:"provider" mapstructure:"provider"` // anthropic, openai
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	BaseURL  string `json:"base_url,omitempty" mapstructure:"base_url"`
	Priority int    `json:"priority" mapstructure:"priority"`
}

// OrchestratorConfig bounds the live loop.
type OrchestratorConfig struct {
	MaxTurns               int     `json:"max_turns" mapstructure:"max_turns"`
	MaxFinalizeCorrections int     `json:"max_finalize_corrections" mapstructure:"max_finalize_corrections"`
	MaxTransportAttempts   int     `json:"max_transport_attempts" mapstructure:"max_transport_attempts"`
	BackoffBaseMs          int     `json:"backoff_base_ms" mapstructure:"backoff_base_ms"`
	BackoffMultiplier      float64 `json:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	MaxBackoffMs           int     `json:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	TurnTimeoutSec         int     `json:"turn_timeout_sec" mapstructure:"turn_timeout_sec"`
	RunTimeoutSec          int     `json:"run_timeout_sec" mapstructure:"run_timeout_sec"`
	DefaultTheme           string  `json:"default_theme" mapstructure:"default_theme"`
}

// ReplayConfig bounds plan replays.
type ReplayConfig struct {
	TimeoutSec        int `json:"timeout_sec" mapstructure:"timeout_sec"`
	RenderConcurrency int `json:"render_concurrency" mapstructure:"render_concurrency"`
}

// RenderConfig controls where charts and documents go.
type RenderConfig struct {
	OutputDir  string `json:"output_dir" mapstructure:"output_dir"`
	ChartsDir  string `json:"charts_dir" mapstructure:"charts_dir"`
	Format     string `json:"format" mapstructure:"format"` // html, pdf
	ChromePath string `json:"chrome_path,omitempty" mapstructure:"chrome_path"`
	NoSandbox  bool   `json:"no_sandbox" mapstructure:"no_sandbox"`
}

// StorageConfig selects the plan store.
type StorageConfig struct {
	Backend string `json:"backend" mapstructure:"backend"` // sqlite, file
	Path    string `json:"path" mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	Format    string `json:"format" mapstructure:"format"` // console, json
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// MetricsConfig holds the prometheus endpoint address. Empty disables it.
type MetricsConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Model:     "claude-sonnet-4-5",
		MaxTokens: 4096,
		AI: AIConfig{
			Profiles: []AIProfile{},
		},
		Orchestrator: OrchestratorConfig{
			MaxTurns:               10,
			MaxFinalizeCorrections: 3,
			MaxTransportAttempts:   3,
			BackoffBaseMs:          1000,
			BackoffMultiplier:      2,
			MaxBackoffMs:           30000,
			TurnTimeoutSec:         120,
			RunTimeoutSec:          600,
			DefaultTheme:           "default",
		},
		Replay: ReplayConfig{
			TimeoutSec:        120,
			RenderConcurrency: 4,
		},
		Render: RenderConfig{
			Format:    "html",
			NoSandbox: false,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "console",
			MaxSize:   50,
			MaxAge:    14,
			Compress:  true,
			Redaction: true,
		},
		Schedules: []schedule.Job{},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}

// ActiveProfile returns the highest-priority AI profile that has a key.
func (c *Config) ActiveProfile() (llm.Profile, error) {
	profiles := make([]AIProfile, 0, len(c.AI.Profiles))
	for _, p := range c.AI.Profiles {
		if p.APIKey != "" {
			profiles = append(profiles, p)
		}
	}
	if len(profiles) == 0 {
		return llm.Profile{}, fmt.Errorf("no AI credentials configured: at least one AI profile is required")
	}
	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].Priority < profiles[j].Priority })

	p := profiles[0]
	return llm.Profile{
		ID:       p.ID,
		Provider: p.Provider,
		APIKey:   p.APIKey,
		BaseURL:  p.BaseURL,
	}, nil
}

// LoggerConfig converts the logging section.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:    c.Logging.Level,
		Format:   c.Logging.Format,
		File:     c.Logging.File,
		Redact:   c.Logging.Redaction,
		MaxSize:  c.Logging.MaxSize,
		MaxAge:   c.Logging.MaxAge,
		Compress: c.Logging.Compress,
	}
}

// Backoff returns the orchestrator retry delays as durations.
func (o OrchestratorConfig) Backoff() (base, maxDelay time.Duration) {
	return time.Duration(o.BackoffBaseMs) * time.Millisecond, time.Duration(o.MaxBackoffMs) * time.Millisecond
}

// TurnTimeout is the per-call model deadline.
func (o OrchestratorConfig) TurnTimeout() time.Duration {
	return time.Duration(o.TurnTimeoutSec) * time.Second
}

// RunTimeout is the deadline for a whole live run.
func (o OrchestratorConfig) RunTimeout() time.Duration {
	return time.Duration(o.RunTimeoutSec) * time.Second
}

// Timeout is the deadline for one replay.
func (r ReplayConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSec) * time.Second
}

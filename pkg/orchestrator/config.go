package orchestrator

import (
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/amatiych/llm-work/pkg/llm"
	"github.com/amatiych/llm-work/pkg/toolexecutor"
)

// Config controls the live loop. Tools is a template: FundID is filled in
// per run.
type Config struct {
	Provider    llm.Provider
	Tools       toolexecutor.Config
	Model       string
	Temperature float64
	MaxTokens   int

	MaxTurns               int
	MaxFinalizeCorrections int

	MaxTransportAttempts int
	BackoffBase          time.Duration
	BackoffMultiplier    float64
	MaxBackoff           time.Duration

	TurnTimeout time.Duration
	RunTimeout  time.Duration

	DefaultTheme string
	Logger       zerolog.Logger
}

// DefaultConfig returns the loop limits used when none are configured.
func DefaultConfig() Config {
	return Config{
		Model:                  "claude-sonnet-4-5",
		MaxTokens:              4096,
		MaxTurns:               10,
		MaxFinalizeCorrections: 3,
		MaxTransportAttempts:   3,
		BackoffBase:            time.Second,
		BackoffMultiplier:      2,
		MaxBackoff:             30 * time.Second,
		TurnTimeout:            2 * time.Minute,
		RunTimeout:             10 * time.Minute,
		DefaultTheme:           "default",
	}
}

func (c *Config) validate() error {
	if c.Provider == nil {
		return errors.New("model provider is required")
	}
	if c.Tools.Funds == nil || c.Tools.Themes == nil || c.Tools.Renderer == nil {
		return errors.New("tool collaborators are required")
	}

	defaults := DefaultConfig()
	if c.MaxTurns <= 0 {
		c.MaxTurns = defaults.MaxTurns
	}
	if c.MaxFinalizeCorrections < 0 {
		c.MaxFinalizeCorrections = 0
	}
	if c.MaxTransportAttempts <= 0 {
		c.MaxTransportAttempts = defaults.MaxTransportAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaults.BackoffBase
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = defaults.BackoffMultiplier
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	if c.DefaultTheme == "" {
		c.DefaultTheme = defaults.DefaultTheme
	}
	return nil
}

// backoff returns the wait before the retry that follows attempt n (1-based):
// BackoffBase * BackoffMultiplier^(n-1), capped at MaxBackoff.
func (c Config) backoff(attempt int) time.Duration {
	d := float64(c.BackoffBase) * math.Pow(c.BackoffMultiplier, float64(attempt-1))
	if d > float64(c.MaxBackoff) {
		return c.MaxBackoff
	}
	return time.Duration(d)
}

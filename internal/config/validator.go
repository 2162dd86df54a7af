package config

import (
	"fmt"
	"strings"

	"github.com/amatiych/llm-work/pkg/plan"
	"github.com/amatiych/llm-work/pkg/render"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

func oneOf(value string, valid ...string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}

// ValidateAPIKey validates an API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	}

	return nil
}

// ValidateProvider validates an AI provider name
func (v *Validator) ValidateProvider(provider string) error {
	if !oneOf(provider, "anthropic", "openai") {
		return fmt.Errorf("invalid provider %s (must be: anthropic, openai)", provider)
	}
	return nil
}

// ValidateTemperature validates temperature value
func (v *Validator) ValidateTemperature(temp float64) error {
	if temp < 0 || temp > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", temp)
	}
	return nil
}

// ValidateMaxTokens validates max tokens value
func (v *Validator) ValidateMaxTokens(tokens int) error {
	if tokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", tokens)
	}
	if tokens > 200000 {
		return fmt.Errorf("max tokens too large (max 200000), got %d", tokens)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !oneOf(level, validLevels...) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
	}
	return nil
}

// ValidateDocumentFormat validates the rendered document format
func (v *Validator) ValidateDocumentFormat(format string) error {
	if !oneOf(format, render.FormatHTML, render.FormatPDF) {
		return fmt.Errorf("invalid render format: %s (must be one of: %s, %s)", format, render.FormatHTML, render.FormatPDF)
	}
	return nil
}

// ValidateStorageBackend validates the plan store backend
func (v *Validator) ValidateStorageBackend(backend string) error {
	if !oneOf(backend, plan.BackendSQLite, plan.BackendFile) {
		return fmt.Errorf("invalid storage backend: %s (must be one of: %s, %s)", backend, plan.BackendSQLite, plan.BackendFile)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errs []error

	for i, profile := range cfg.AI.Profiles {
		if profile.ID == "" {
			errs = append(errs, fmt.Errorf("AI profile %d: ID is required", i))
		}
		if err := v.ValidateProvider(profile.Provider); err != nil {
			errs = append(errs, fmt.Errorf("AI profile %d (%s): %w", i, profile.ID, err))
			continue
		}
		if err := v.ValidateAPIKey(profile.APIKey, profile.Provider); err != nil {
			errs = append(errs, fmt.Errorf("AI profile %d (%s): %w", i, profile.ID, err))
		}
	}

	if strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("model is required"))
	}
	if err := v.ValidateTemperature(cfg.Temperature); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateMaxTokens(cfg.MaxTokens); err != nil {
		errs = append(errs, err)
	}

	o := cfg.Orchestrator
	if o.MaxTurns <= 0 {
		errs = append(errs, fmt.Errorf("orchestrator.max_turns must be > 0"))
	}
	if o.MaxFinalizeCorrections < 0 {
		errs = append(errs, fmt.Errorf("orchestrator.max_finalize_corrections must be >= 0"))
	}
	if o.MaxTransportAttempts <= 0 {
		errs = append(errs, fmt.Errorf("orchestrator.max_transport_attempts must be > 0"))
	}
	if o.BackoffBaseMs < 0 || o.MaxBackoffMs < 0 {
		errs = append(errs, fmt.Errorf("orchestrator backoff must be >= 0"))
	}
	if o.BackoffMultiplier != 0 && o.BackoffMultiplier < 1 {
		errs = append(errs, fmt.Errorf("orchestrator.backoff_multiplier must be >= 1"))
	}
	if o.TurnTimeoutSec < 0 || o.RunTimeoutSec < 0 {
		errs = append(errs, fmt.Errorf("orchestrator timeouts must be >= 0"))
	}

	if cfg.Replay.TimeoutSec < 0 {
		errs = append(errs, fmt.Errorf("replay.timeout_sec must be >= 0"))
	}
	if cfg.Replay.RenderConcurrency < 0 {
		errs = append(errs, fmt.Errorf("replay.render_concurrency must be >= 0"))
	}

	if err := v.ValidateDocumentFormat(cfg.Render.Format); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateStorageBackend(cfg.Storage.Backend); err != nil {
		errs = append(errs, err)
	}

	names := make(map[string]bool)
	for i, job := range cfg.Schedules {
		if err := job.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("schedule %d (%s): %w", i, job.Name, err))
			continue
		}
		if names[job.Name] {
			errs = append(errs, fmt.Errorf("schedule %d: duplicate name %s", i, job.Name))
		}
		names[job.Name] = true
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	return errs
}

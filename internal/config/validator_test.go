package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		key      string
		provider string
		wantErr  bool
	}{
		{"valid anthropic", "sk-ant-api03-abc", "anthropic", false},
		{"anthropic wrong prefix", "sk-abc", "anthropic", true},
		{"valid openai", "sk-proj-abc", "openai", false},
		{"openai wrong prefix", "key-abc", "openai", true},
		{"empty", "", "openai", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAPIKey(tt.key, tt.provider)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProvider(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateProvider("anthropic"))
	assert.NoError(t, v.ValidateProvider("openai"))
	assert.Error(t, v.ValidateProvider("gemini"))
}

func TestValidateTemperature(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateTemperature(0))
	assert.NoError(t, v.ValidateTemperature(1))
	assert.Error(t, v.ValidateTemperature(-0.1))
	assert.Error(t, v.ValidateTemperature(1.5))
}

func TestValidateMaxTokens(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateMaxTokens(4096))
	assert.Error(t, v.ValidateMaxTokens(0))
	assert.Error(t, v.ValidateMaxTokens(300000))
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()
	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level), level)
	}
	assert.Error(t, v.ValidateLogLevel("verbose"))
}

func TestValidateDocumentFormat(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateDocumentFormat("html"))
	assert.NoError(t, v.ValidateDocumentFormat("pdf"))
	assert.Error(t, v.ValidateDocumentFormat("markdown"))
}

func TestValidateStorageBackend(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateStorageBackend("sqlite"))
	assert.NoError(t, v.ValidateStorageBackend("file"))
	assert.Error(t, v.ValidateStorageBackend("redis"))
}

func TestValidateConfig_CollectsErrors(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Profiles = append(cfg.AI.Profiles, AIProfile{ID: "second", Provider: "openai", APIKey: "bad"})
	cfg.Replay.RenderConcurrency = -2
	cfg.Storage.Backend = ""

	errs := NewValidator().ValidateConfig(cfg)
	assert.Len(t, errs, 3)
}

package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json console output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger, err := newWithConsole(Config{Level: "info", Format: "json"}, buf)
		require.NoError(t, err)
		defer logger.Close()

		zl := logger.Zerolog()
		zl.Info().Str("fund_id", "alpha_aggressive").Msg("Run started")
		assert.Contains(t, buf.String(), `"fund_id":"alpha_aggressive"`)
		assert.Contains(t, buf.String(), `"message":"Run started"`)
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "fundreport.log")
		logger, err := newWithConsole(Config{Level: "debug", Format: "json", File: logFile}, &bytes.Buffer{})
		require.NoError(t, err)

		zl := logger.Zerolog()
		zl.Debug().Msg("debug message")
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "debug message")
	})

	t.Run("redaction", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger, err := newWithConsole(Config{Level: "info", Format: "json", Redact: true}, buf)
		require.NoError(t, err)
		defer logger.Close()

		assert.NotNil(t, logger.redactor)
		zl := logger.Zerolog()
		zl.Warn().Str("header", "Bearer abc123.def456").Msg("Provider rejected request")
		assert.NotContains(t, buf.String(), "abc123.def456")
		assert.Contains(t, buf.String(), redacted)
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		logger, err := newWithConsole(Config{Level: "chatty"}, &bytes.Buffer{})
		require.NoError(t, err)
		defer logger.Close()
		assert.Equal(t, zerolog.InfoLevel, logger.Zerolog().GetLevel())
	})
}

func TestComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := newWithConsole(Config{Level: "info", Format: "json"}, buf)
	require.NoError(t, err)
	defer logger.Close()

	component := logger.Component("replay")
	component.Info().Msg("Replay finished")
	assert.Contains(t, buf.String(), `"component":"replay"`)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.True(t, cfg.Redact)
	assert.Equal(t, 50, cfg.MaxSize)
	assert.Equal(t, 14, cfg.MaxAge)
	assert.True(t, cfg.Compress)
}

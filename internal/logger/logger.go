package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger owns the process-wide zerolog logger and the sinks behind it.
type Logger struct {
	logger   zerolog.Logger
	file     *RotatingWriter
	redactor *Redactor
}

// Config holds logger configuration
type Config struct {
	Level    string // debug, info, warn, error
	Format   string // json or console
	File     string // optional log file path
	Redact   bool   // scrub provider keys and secrets
	MaxSize  int    // MB before the file is rotated
	MaxAge   int    // days rotated files are kept
	Compress bool   // gzip rotated files
}

// New builds the logger and installs it as the global zerolog logger.
// Console output goes to stderr so command output on stdout stays clean.
func New(cfg Config) (*Logger, error) {
	return newWithConsole(cfg, os.Stderr)
}

func newWithConsole(cfg Config, console io.Writer) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = console
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	}

	var file *RotatingWriter
	if cfg.File != "" {
		file, err = NewRotatingWriter(cfg.File, cfg.MaxSize, cfg.MaxAge, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, file)
	}

	var redactor *Redactor
	if cfg.Redact {
		redactor = NewRedactor()
		out = redactor.Wrap(out)
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = logger

	return &Logger{
		logger:   logger,
		file:     file,
		redactor: redactor,
	}, nil
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Zerolog returns the configured logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.logger.With().Str("component", name).Logger()
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Format:   "console",
		Redact:   true,
		MaxSize:  50,
		MaxAge:   14,
		Compress: true,
	}
}

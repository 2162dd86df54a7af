package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a wizard reading answers from in and prompting on out.
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run asks for provider keys and report defaults, starting from base.
func (w *Wizard) Run(base *Config) (*Config, error) {
	cfg := base
	if cfg == nil {
		cfg = DefaultConfig()
	}
	validator := NewValidator()

	fmt.Fprintln(w.out, "=== fundreport configuration ===")
	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "API Keys (at least one is required):")

	profiles := []AIProfile{}
	for i, provider := range []string{"anthropic", "openai"} {
		key, err := w.askKey(validator, provider)
		if err != nil {
			return nil, err
		}
		if key != "" {
			profiles = append(profiles, AIProfile{ID: provider, Provider: provider, APIKey: key, Priority: i + 1})
		}
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("at least one API key is required")
	}
	cfg.AI.Profiles = profiles

	fmt.Fprintln(w.out)
	model, err := w.ask(fmt.Sprintf("Model name [%s]: ", cfg.Model))
	if err != nil {
		return nil, err
	}
	if model != "" {
		cfg.Model = model
	}

	format, err := w.ask(fmt.Sprintf("Document format (html/pdf) [%s]: ", cfg.Render.Format))
	if err != nil {
		return nil, err
	}
	if format != "" {
		if err := validator.ValidateDocumentFormat(format); err != nil {
			fmt.Fprintf(w.out, "Warning: %v, using %s\n", err, cfg.Render.Format)
		} else {
			cfg.Render.Format = format
		}
	}

	backend, err := w.ask(fmt.Sprintf("Plan storage (sqlite/file) [%s]: ", cfg.Storage.Backend))
	if err != nil {
		return nil, err
	}
	if backend != "" {
		if err := validator.ValidateStorageBackend(backend); err != nil {
			fmt.Fprintf(w.out, "Warning: %v, using %s\n", err, cfg.Storage.Backend)
		} else if backend != cfg.Storage.Backend {
			cfg.Storage.Backend = backend
			cfg.Storage.Path = ""
		}
	}

	level, err := w.ask(fmt.Sprintf("Log level (debug/info/warn/error) [%s]: ", cfg.Logging.Level))
	if err != nil {
		return nil, err
	}
	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			fmt.Fprintf(w.out, "Warning: %v, using %s\n", err, cfg.Logging.Level)
		} else {
			cfg.Logging.Level = level
		}
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration complete!")
	return cfg, nil
}

func (w *Wizard) askKey(validator *Validator, provider string) (string, error) {
	for {
		key, err := w.ask(fmt.Sprintf("%s API key (press Enter to skip): ", provider))
		if err != nil || key == "" {
			return "", err
		}
		if err := validator.ValidateAPIKey(key, provider); err != nil {
			fmt.Fprintf(w.out, "Error: %v\n", err)
			continue
		}
		return key, nil
	}
}

func (w *Wizard) ask(prompt string) (string, error) {
	fmt.Fprint(w.out, prompt)
	line, err := w.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

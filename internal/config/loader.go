package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FUNDREPORT_MODEL.
const EnvPrefix = "FUNDREPORT"

// envKeys can be overridden from the environment without a config file.
var envKeys = []string{
	"model",
	"temperature",
	"max_tokens",
	"data_dir",
	"themes_dir",
	"funds_dir",
	"orchestrator.max_turns",
	"orchestrator.max_finalize_corrections",
	"orchestrator.max_transport_attempts",
	"orchestrator.turn_timeout_sec",
	"orchestrator.run_timeout_sec",
	"orchestrator.default_theme",
	"replay.timeout_sec",
	"replay.render_concurrency",
	"render.output_dir",
	"render.charts_dir",
	"render.format",
	"render.chrome_path",
	"render.no_sandbox",
	"storage.backend",
	"storage.path",
	"logging.level",
	"logging.format",
	"logging.file",
	"metrics.addr",
}

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load reads the config file if it exists, applies FUNDREPORT_* overrides
// and fills in paths derived from the data directory.
func (l *Loader) Load() (*Config, error) {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return nil, fmt.Errorf("failed to determine config path")
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyDerived(cfg); err != nil {
		return nil, err
	}
	applyProviderEnv(cfg)

	return cfg, nil
}

func applyDerived(cfg *Config) error {
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".fundreport")
	}

	if cfg.Storage.Path == "" {
		if cfg.Storage.Backend == "file" {
			cfg.Storage.Path = filepath.Join(cfg.DataDir, "plans")
		} else {
			cfg.Storage.Path = filepath.Join(cfg.DataDir, "plans.db")
		}
	}
	if cfg.Render.OutputDir == "" {
		cfg.Render.OutputDir = filepath.Join(cfg.DataDir, "reports")
	}
	if cfg.Render.ChartsDir == "" {
		cfg.Render.ChartsDir = filepath.Join(cfg.DataDir, "charts")
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "fundreport.log")
	}
	return nil
}

// applyProviderEnv adds profiles from the providers' own key variables
// when the config file declares none.
func applyProviderEnv(cfg *Config) {
	if len(cfg.AI.Profiles) > 0 {
		return
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.AI.Profiles = append(cfg.AI.Profiles, AIProfile{ID: "env-anthropic", Provider: "anthropic", APIKey: key, Priority: 1})
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.AI.Profiles = append(cfg.AI.Profiles, AIProfile{ID: "env-openai", Provider: "openai", APIKey: key, Priority: 2})
	}
}

// Save saves the configuration to file
func (l *Loader) Save(cfg *Config) error {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return fmt.Errorf("failed to determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("ai", cfg.AI)
	v.Set("model", cfg.Model)
	v.Set("temperature", cfg.Temperature)
	v.Set("max_tokens", cfg.MaxTokens)
	v.Set("orchestrator", cfg.Orchestrator)
	v.Set("replay", cfg.Replay)
	v.Set("render", cfg.Render)
	v.Set("storage", cfg.Storage)
	v.Set("themes_dir", cfg.ThemesDir)
	v.Set("funds_dir", cfg.FundsDir)
	v.Set("data_dir", cfg.DataDir)
	v.Set("logging", cfg.Logging)
	v.Set("metrics", cfg.Metrics)
	v.Set("schedules", cfg.Schedules)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(configPath, 0600)
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fundreport", "fundreport.json")
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}

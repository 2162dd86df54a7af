package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amatiych/llm-work/internal/config"
)

const version = "0.1.0"

// rootOptions holds the global flags shared by every command.
type rootOptions struct {
	cfgFile     string
	logLevel    string
	metricsAddr string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "fundreport",
		Short: "fundreport - model-driven fund report generation",
		Long: `fundreport lets a language model assemble a fund report through a fixed
set of report tools, records the successful calls as a named plan, and
replays saved plans against current fund data without the model.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.fundreport/fundreport.json)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")

	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	cmd.AddCommand(
		newRunCmd(opts),
		newReplayCmd(opts),
		newPlansCmd(opts),
		newFundsCmd(opts),
		newThemesCmd(opts),
		newChartsCmd(opts),
		newScheduleCmd(opts),
		newStartCmd(opts),
		newStatusCmd(opts),
		newStopCmd(opts),
		newConfigureCmd(opts),
	)
	return cmd
}

// Execute runs the command line. Called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

// GetRootCmd returns a fresh root command for testing
func GetRootCmd() *cobra.Command {
	return NewRootCmd()
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// loadConfig reads the config file and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// open loads the config and wires the application.
func (o *rootOptions) open() (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

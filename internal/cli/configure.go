package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amatiych/llm-work/internal/config"
)

func newConfigureCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Run interactive configuration wizard",
		Long: `Run an interactive configuration wizard to set up fundreport.
The wizard asks for provider API keys, the model and where reports and plans go.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, root)
		},
	}
}

func runConfigure(cmd *cobra.Command, root *rootOptions) error {
	loader := config.NewLoader(root.cfgFile)
	base, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load existing configuration: %w", err)
	}

	wizard := config.NewWizard(cmd.InOrStdin(), cmd.OutOrStdout())
	cfg, err := wizard.Run(base)
	if err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nConfiguration saved to: %s\n", loader.GetConfigPath())
	fmt.Fprintln(out, "\nYou can now generate a report with: fundreport run --fund <id>")
	return nil
}

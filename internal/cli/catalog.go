package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFundsCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "funds",
		Short: "List the funds reports can be built for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open()
			if err != nil {
				return err
			}
			defer a.Close()

			funds, err := a.funds.Funds(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), funds)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, f := range funds {
				fmt.Fprintf(tw, "%s\t%s\n", f.ID, f.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newThemesCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List client themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open()
			if err != nil {
				return err
			}
			defer a.Close()

			themes, err := a.themes.Themes(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), themes)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCLIENT\tPALETTE")
			for _, th := range themes {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", th.ID, th.ClientName, strings.Join(th.Palette, " "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newChartsCmd(root *rootOptions) *cobra.Command {
	var (
		fundID string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "List the charts available for a fund",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open()
			if err != nil {
				return err
			}
			defer a.Close()

			charts, err := a.funds.AvailableCharts(cmd.Context(), fundID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), charts)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
			for _, c := range charts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&fundID, "fund", "f", "", "fund id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	_ = cmd.MarkFlagRequired("fund")
	return cmd
}

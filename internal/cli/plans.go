package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amatiych/llm-work/internal/observability"
)

func newPlansCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	plansCmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage saved report plans",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlansList(cmd, root, asJSON)
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved plan as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlansShow(cmd, root, args[0])
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlansDelete(cmd, root, args[0])
		},
	}

	plansCmd.AddCommand(listCmd, showCmd, deleteCmd)
	return plansCmd
}

func runPlansList(cmd *cobra.Command, root *rootOptions, asJSON bool) error {
	a, err := root.open()
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.planStore()
	if err != nil {
		return err
	}
	plans, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, plans)
	}
	if len(plans) == 0 {
		fmt.Fprintln(out, "No saved plans.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFUND\tSTEPS\tTITLE\tCREATED")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", p.Name, p.FundID, p.Steps, p.Title, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func runPlansShow(cmd *cobra.Command, root *rootOptions, name string) error {
	a, err := root.open()
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.planStore()
	if err != nil {
		return err
	}
	p, err := store.Load(cmd.Context(), name)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), p)
}

func runPlansDelete(cmd *cobra.Command, root *rootOptions, name string) error {
	a, err := root.open()
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.planStore()
	if err != nil {
		return err
	}
	err = store.Delete(cmd.Context(), name)
	observability.RecordPlanAudit(cmd.Context(), "deleted", name, err == nil, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %s.\n", name)
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

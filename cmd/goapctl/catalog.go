package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the catalog and report whether it is well formed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog ok: %d goals, %d actions, %d keys\n",
				len(c.Goals()), len(c.Actions()), c.Defaults().Defined().Len())
			return nil
		},
	}
}

func newGoalsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "goals",
		Short: "List goals by priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPRIORITY\tDESIRED")
			for _, g := range c.Goals() {
				fmt.Fprintf(w, "%s\t%g\t%s\n", g.Name, g.Priority, g.Desired)
			}
			return w.Flush()
		},
	}
}

func newActionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List actions in declaration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCOST\tEXECUTOR\tPRECONDITIONS\tEFFECTS")
			for _, a := range c.Actions() {
				pre := a.Preconditions.String()
				if len(a.Guards) > 0 {
					guards := make([]string, len(a.Guards))
					for i, g := range a.Guards {
						guards[i] = fmt.Sprintf("%s: %s", g.Key, g.Expression)
					}
					pre += " [" + strings.Join(guards, ", ") + "]"
				}
				fmt.Fprintf(w, "%s\t%g\t%s\t%s\t%s\n", a.Name, a.Cost, a.Binding.Kind, pre, a.Effects)
			}
			return w.Flush()
		},
	}
}

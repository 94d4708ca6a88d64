package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/udisondev/stealthai/internal/data"
)

type rootOptions struct {
	catalogPath string
}

// newRootCmd builds a fresh command tree, so tests never share flag state.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "goapctl",
		Short:         "Inspect NPC decision catalogs and plan offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "catalog YAML file (default is the embedded catalog)")

	root.AddCommand(
		newValidateCmd(opts),
		newGoalsCmd(opts),
		newActionsCmd(opts),
		newPlanCmd(opts),
		newTracesCmd(),
	)
	return root
}

func (o *rootOptions) loadCatalog() (*data.Catalog, error) {
	if o.catalogPath == "" {
		return data.LoadDefaultCatalog()
	}
	c, err := data.LoadCatalogFile(o.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return c, nil
}

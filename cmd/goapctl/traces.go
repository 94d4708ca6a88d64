package main

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/config"
	"github.com/udisondev/stealthai/internal/db"
)

func newTracesCmd() *cobra.Command {
	var (
		agent uint32
		dsn   string
	)

	cmd := &cobra.Command{
		Use:   "traces --agent ID",
		Short: "Summarize persisted planner traces of an agent by reason",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dsn == "" {
				cfg, err := config.LoadSim(config.Path())
				if err != nil {
					return err
				}
				dsn = cfg.Database.DSN()
			}

			database, err := db.New(cmd.Context(), dsn)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer database.Close()

			counts, err := db.NewTraceRepository(database.Pool()).CountByReason(cmd.Context(), ai.AgentID(agent))
			if err != nil {
				return err
			}

			reasons := make([]string, 0, len(counts))
			for r := range counts {
				reasons = append(reasons, r)
			}
			slices.Sort(reasons)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REASON\tCOUNT")
			for _, r := range reasons {
				fmt.Fprintf(w, "%s\t%d\n", r, counts[r])
			}
			return w.Flush()
		},
	}

	cmd.Flags().Uint32Var(&agent, "agent", 0, "agent ID")
	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (default from the simserver config)")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

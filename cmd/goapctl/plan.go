package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/udisondev/stealthai/internal/game/planner"
	"github.com/udisondev/stealthai/internal/model"
)

type planOptions struct {
	goal        string
	set         []string
	maxExpanded int
	maxLength   int
}

func newPlanCmd(root *rootOptions) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan --goal NAME [--set Key=value...]",
		Short: "Plan toward a goal from the catalog defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := root.loadCatalog()
			if err != nil {
				return err
			}
			goal, ok := c.Goal(opts.goal)
			if !ok {
				return fmt.Errorf("unknown goal %q", opts.goal)
			}

			start := c.Defaults()
			for _, kv := range opts.set {
				f, err := parseFact(kv)
				if err != nil {
					return err
				}
				start.Set(f.Key, f.Value)
			}

			plan, err := planner.Search(start, c.PlanTarget(goal), c.Actions(), planner.Limits{
				MaxExpanded:   opts.maxExpanded,
				MaxPlanLength: opts.maxLength,
			})
			if errors.Is(err, planner.ErrNoPlanFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "no plan for %s\n", goal.Name)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if plan.Len() == 0 {
				fmt.Fprintf(out, "%s already satisfied (expanded %d)\n", goal.Name, plan.Expanded)
				return nil
			}
			fmt.Fprintf(out, "plan for %s: cost %g, expanded %d\n", goal.Name, plan.Cost, plan.Expanded)
			for i, a := range plan.Steps {
				fmt.Fprintf(out, "  %d. %s (%s %s)\n", i+1, a.Name, a.Binding.Kind, a.Binding.Target)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.goal, "goal", "", "goal name")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "starting fact Key=value, repeatable")
	cmd.Flags().IntVar(&opts.maxExpanded, "max-expanded", planner.DefaultMaxExpanded, "node expansion budget")
	cmd.Flags().IntVar(&opts.maxLength, "max-length", planner.DefaultMaxPlanLength, "maximum plan length")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

// parseFact parses "HasTarget=true" or "AlertLevel=2".
func parseFact(kv string) (model.Fact, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok {
		return model.Fact{}, fmt.Errorf("--set %q: expected Key=value", kv)
	}
	k, err := model.ParseWorldKey(name)
	if err != nil {
		return model.Fact{}, fmt.Errorf("--set %q: %w", kv, err)
	}
	v, err := model.ParseValue(raw)
	if err != nil {
		return model.Fact{}, fmt.Errorf("--set %q: %w", kv, err)
	}
	return model.Fact{Key: k, Value: v}, nil
}

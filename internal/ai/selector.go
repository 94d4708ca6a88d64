package ai

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/udisondev/stealthai/internal/data"
	"github.com/udisondev/stealthai/internal/game/planner"
	"github.com/udisondev/stealthai/internal/model"
)

// Selector is the Goal Selector of one agent. It walks goals by priority and
// picks the first that is unsatisfied, allowed and has a plan.
//
// Search is a pure function of (state, target, actions), so a goal proven
// infeasible from a state stays infeasible until the state changes. The
// selector remembers that per goal and skips the repeated search.
type Selector struct {
	catalog *data.Catalog
	ordered []*model.Goal // priority desc, declaration order on ties
	limits  planner.Limits

	infeasible map[*model.Goal]model.WorldState
}

// NewSelector returns a selector over c's goals.
func NewSelector(c *data.Catalog, limits planner.Limits) *Selector {
	ordered := slices.Clone(c.Goals())
	slices.SortStableFunc(ordered, func(a, b *model.Goal) int {
		switch {
		case a.Priority > b.Priority:
			return -1
		case a.Priority < b.Priority:
			return 1
		}
		return a.Order - b.Order
	})

	return &Selector{
		catalog:    c,
		ordered:    ordered,
		limits:     limits,
		infeasible: make(map[*model.Goal]model.WorldState, len(ordered)),
	}
}

// Ordered returns goals in selection order.
func (s *Selector) Ordered() []*model.Goal { return s.ordered }

// Outranks reports whether a is evaluated before b.
func (s *Selector) Outranks(a, b *model.Goal) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Order < b.Order
}

// Select returns a plan for the best eligible goal, or nil if none is
// feasible. When above is non-nil only goals that outrank it are considered.
// skip excludes goals (cooldown); it may be nil.
func (s *Selector) Select(state model.WorldState, above *model.Goal, skip func(*model.Goal) bool) *model.Plan {
	for _, g := range s.ordered {
		if above != nil && !s.Outranks(g, above) {
			return nil
		}
		if g.SatisfiedBy(state) {
			continue
		}
		if skip != nil && skip(g) {
			continue
		}
		if known, ok := s.infeasible[g]; ok && known == state {
			continue
		}

		plan, err := planner.Search(state, s.catalog.PlanTarget(g), s.catalog.Actions(), s.limits)
		if err != nil {
			s.infeasible[g] = state
			logSearchFailure(g, err)
			continue
		}
		delete(s.infeasible, g)
		plan.Goal = g
		return plan
	}
	return nil
}

func logSearchFailure(g *model.Goal, err error) {
	if errors.Is(err, planner.ErrSearchBudgetExceeded) {
		slog.Warn("goal search budget exceeded", "goal", g.Name, "error", err)
		return
	}
	if IsDebugEnabled() {
		slog.Debug("goal infeasible", "goal", g.Name, "error", err)
	}
}

package data

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Profile is the behavior personality of an agent kind. Each trait is in [0,1].
type Profile struct {
	Aggression   float64 `yaml:"aggression"`
	Intelligence float64 `yaml:"intelligence"`
	Teamwork     float64 `yaml:"teamwork"`
}

// Validate checks every trait is within [0,1].
func (p Profile) Validate() error {
	for _, t := range []struct {
		name string
		v    float64
	}{
		{"aggression", p.Aggression},
		{"intelligence", p.Intelligence},
		{"teamwork", p.Teamwork},
	} {
		if math.IsNaN(t.v) || t.v < 0 || t.v > 1 {
			return fmt.Errorf("%w: profile %s=%v outside [0,1]", ErrInvalidCatalog, t.name, t.v)
		}
	}
	return nil
}

// WithProfile returns a copy of c with costs and priorities shaped by p:
//
//	attack              cost     1 / (1 + aggression)
//	take_cover          cost     1 + aggression
//	call_for_help       cost     1.5 / (1 + teamwork)
//	flank_target        cost     3 / (1 + intelligence)
//	eliminate_threat    priority 10 * (1 + aggression)
//	tactical_advantage  priority 8 * (1 + intelligence)
//
// Entries missing from c are skipped. c is not modified.
func (c *Catalog) WithProfile(p Profile) (*Catalog, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	out := c.clone()
	setCost := func(name string, cost float64) {
		if a, ok := out.actionsByName[name]; ok {
			a.Cost = cost
		}
	}
	setPriority := func(name string, priority float64) {
		if g, ok := out.goalsByName[name]; ok {
			g.Priority = priority
		}
	}

	setCost("attack", 1/(1+p.Aggression))
	setCost("take_cover", 1+p.Aggression)
	setCost("call_for_help", 1.5/(1+p.Teamwork))
	setCost("flank_target", 3/(1+p.Intelligence))
	setPriority("eliminate_threat", 10*(1+p.Aggression))
	setPriority("tactical_advantage", 8*(1+p.Intelligence))

	return out, nil
}

// WithOverrides returns a copy of c with action costs and goal priorities
// replaced by name. An unknown name or a non-positive cost is an error.
func (c *Catalog) WithOverrides(costs, priorities map[string]float64) (*Catalog, error) {
	if len(costs) == 0 && len(priorities) == 0 {
		return c, nil
	}

	out := c.clone()
	// Sorted so the first reported error does not depend on map order.
	for _, name := range slices.Sorted(maps.Keys(costs)) {
		cost := costs[name]
		a, ok := out.actionsByName[name]
		if !ok {
			return nil, fmt.Errorf("%w: cost override for unknown action %q", ErrInvalidCatalog, name)
		}
		if !(cost > 0) || math.IsInf(cost, 0) {
			return nil, fmt.Errorf("%w: cost override for %q must be positive, got %v", ErrInvalidCatalog, name, cost)
		}
		a.Cost = cost
	}
	for _, name := range slices.Sorted(maps.Keys(priorities)) {
		priority := priorities[name]
		g, ok := out.goalsByName[name]
		if !ok {
			return nil, fmt.Errorf("%w: priority override for unknown goal %q", ErrInvalidCatalog, name)
		}
		if math.IsNaN(priority) || math.IsInf(priority, 0) {
			return nil, fmt.Errorf("%w: priority override for %q must be finite", ErrInvalidCatalog, name)
		}
		g.Priority = priority
	}
	return out, nil
}

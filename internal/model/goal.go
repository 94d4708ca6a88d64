package model

// Goal is a named desired partial world state with a static priority.
type Goal struct {
	Name     string
	Priority float64
	Desired  Conditions

	// Order is the declaration index in the registry; it breaks priority ties.
	Order int
}

// SatisfiedBy reports whether s already meets the goal.
func (g *Goal) SatisfiedBy(s WorldState) bool {
	return s.Satisfies(g.Desired)
}

// GoalName returns g.Name, or "" for a nil goal.
func GoalName(g *Goal) string {
	if g == nil {
		return ""
	}
	return g.Name
}

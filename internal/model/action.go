package model

import (
	"fmt"
	"strings"
)

// ExecutorKind names the external system that carries out an action.
type ExecutorKind uint8

const (
	// ExecutorMovement - pathfinding and locomotion (patrol, retreat, take cover)
	ExecutorMovement ExecutorKind = iota
	// ExecutorCombat - attacks, reloads, grenades, suppression
	ExecutorCombat
	// ExecutorInteraction - alarm panels, radios, medkits, pickups
	ExecutorInteraction
	// ExecutorHacking - device intrusion
	ExecutorHacking

	executorKindCount
)

var executorKindNames = [executorKindCount]string{
	ExecutorMovement:    "movement",
	ExecutorCombat:      "combat",
	ExecutorInteraction: "interaction",
	ExecutorHacking:     "hacking",
}

// ExecutorKinds lists every kind in declaration order.
func ExecutorKinds() []ExecutorKind {
	kinds := make([]ExecutorKind, executorKindCount)
	for i := range kinds {
		kinds[i] = ExecutorKind(i)
	}
	return kinds
}

func (k ExecutorKind) String() string {
	if k < executorKindCount {
		return executorKindNames[k]
	}
	return fmt.Sprintf("ExecutorKind(%d)", uint8(k))
}

// ParseExecutorKind resolves an executor name.
func ParseExecutorKind(name string) (ExecutorKind, error) {
	for i, n := range executorKindNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return ExecutorKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown executor kind %q", name)
}

// Binding tells the external executor what to do. The planner never looks
// inside it.
type Binding struct {
	Kind   ExecutorKind
	Target string // movement target, attack target, device id...
}

// Action is a catalog entry: what must hold before it, what it guarantees
// after it succeeds, and how much it costs.
type Action struct {
	Name          string
	Cost          float64
	Preconditions Conditions
	Guards        []*Guard
	Effects       Conditions
	Binding       Binding

	// Order is the declaration index in the catalog; it breaks search ties.
	Order int
}

// Applicable reports whether the action may be taken from s.
func (a *Action) Applicable(s WorldState) bool {
	if !s.Satisfies(a.Preconditions) {
		return false
	}
	for _, g := range a.Guards {
		if !g.Allows(s) {
			return false
		}
	}
	return true
}

// ReadKeys returns the keys the action's preconditions and guards read.
func (a *Action) ReadKeys() KeySet {
	keys := a.Preconditions.Keys()
	for _, g := range a.Guards {
		keys = keys.Add(g.Key)
	}
	return keys
}

// Plan is an ordered action sequence toward one goal, owned by one agent.
type Plan struct {
	Goal     *Goal
	Steps    []*Action
	Cost     float64
	Expanded int // search nodes expanded while finding it
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}

// Names returns the action names in order.
func (p *Plan) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.Steps))
	for i, a := range p.Steps {
		names[i] = a.Name
	}
	return names
}

// Simulate applies every step's effects to s in order.
func (p *Plan) Simulate(s WorldState) WorldState {
	for _, a := range p.Steps {
		s = s.Apply(a.Effects)
	}
	return s
}

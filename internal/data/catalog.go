package data

import (
	"errors"

	"github.com/udisondev/stealthai/internal/model"
)

var (
	// ErrDuplicateCatalogEntry is returned when two goals or two actions share a name.
	ErrDuplicateCatalogEntry = errors.New("duplicate catalog entry")

	// ErrUndefinedKey is returned when a goal, action or guard references a key
	// that has no default value.
	ErrUndefinedKey = errors.New("key has no default")

	// ErrInvalidCatalog is returned for any other malformed catalog data.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// Catalog is the validated Goal Registry and Action Catalog. A Catalog is
// immutable after construction and may be shared by any number of agents.
// Slices returned by its accessors must not be modified.
type Catalog struct {
	goals         []*model.Goal   // declaration order
	actions       []*model.Action // declaration order
	goalsByName   map[string]*model.Goal
	actionsByName map[string]*model.Action

	defaults   model.WorldState
	writable   model.KeySet // keys some action writes
	referenced model.KeySet // keys some goal, action or guard mentions
}

// Goals returns goals in declaration order.
func (c *Catalog) Goals() []*model.Goal { return c.goals }

// Actions returns actions in declaration order.
func (c *Catalog) Actions() []*model.Action { return c.actions }

// Goal returns the goal with the given name.
func (c *Catalog) Goal(name string) (*model.Goal, bool) {
	g, ok := c.goalsByName[name]
	return g, ok
}

// Action returns the action with the given name.
func (c *Catalog) Action(name string) (*model.Action, bool) {
	a, ok := c.actionsByName[name]
	return a, ok
}

// Defaults returns the initial world state for a new agent.
func (c *Catalog) Defaults() model.WorldState { return c.defaults }

// Default returns the documented default for k.
func (c *Catalog) Default(k model.WorldKey) (model.Value, bool) {
	return c.defaults.Lookup(k)
}

// Writable returns the keys at least one action writes.
func (c *Catalog) Writable() model.KeySet { return c.writable }

// Referenced returns every key a goal, action or guard mentions.
func (c *Catalog) Referenced() model.KeySet { return c.referenced }

// PlanTarget returns the part of g's desired state that actions can reach.
// Desired keys no action writes are owned by an external writer (morale
// recovery owns IsPanicked) and are left out of the search.
func (c *Catalog) PlanTarget(g *model.Goal) model.Conditions {
	target := make(model.Conditions, 0, len(g.Desired))
	for _, f := range g.Desired {
		if c.writable.Has(f.Key) {
			target = append(target, f)
		}
	}
	return target
}

// ExecutorKinds returns the distinct executor kinds bound by actions, in
// kind order.
func (c *Catalog) ExecutorKinds() []model.ExecutorKind {
	var used [8]bool
	for _, a := range c.actions {
		used[a.Binding.Kind] = true
	}
	kinds := make([]model.ExecutorKind, 0, len(used))
	for _, k := range model.ExecutorKinds() {
		if used[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// build indexes goals and actions and computes derived key sets. Callers
// have already validated names and keys.
func build(goals []*model.Goal, actions []*model.Action, defaults model.WorldState) *Catalog {
	c := &Catalog{
		goals:         goals,
		actions:       actions,
		goalsByName:   make(map[string]*model.Goal, len(goals)),
		actionsByName: make(map[string]*model.Action, len(actions)),
		defaults:      defaults,
	}
	for _, g := range goals {
		c.goalsByName[g.Name] = g
		c.referenced = c.referenced.Union(g.Desired.Keys())
	}
	for _, a := range actions {
		c.actionsByName[a.Name] = a
		c.writable = c.writable.Union(a.Effects.Keys())
		c.referenced = c.referenced.Union(a.ReadKeys()).Union(a.Effects.Keys())
	}
	return c
}

// clone returns a shallow copy with fresh Goal and Action structs, so the
// copy's costs and priorities can change without touching c. Conditions and
// guards are shared.
func (c *Catalog) clone() *Catalog {
	goals := make([]*model.Goal, len(c.goals))
	for i, g := range c.goals {
		cp := *g
		goals[i] = &cp
	}
	actions := make([]*model.Action, len(c.actions))
	for i, a := range c.actions {
		cp := *a
		actions[i] = &cp
	}
	return build(goals, actions, c.defaults)
}

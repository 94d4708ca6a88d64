package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeySet must be able to hold every key.
var _ [64 - int(KeyCount)]struct{}

// Value is the value of a single fact. Boolean facts use False/True; scalar
// facts (AlertLevel) use small non-negative integers.
type Value int32

const (
	False Value = 0
	True  Value = 1
)

// Bool converts b to a Value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Bool reports whether v is non-zero.
func (v Value) Bool() bool {
	return v != False
}

// UnmarshalYAML accepts booleans and integers.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Tag {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case "!!int":
		var n int32
		if err := node.Decode(&n); err != nil {
			return err
		}
		*v = Value(n)
		return nil
	}
	return fmt.Errorf("line %d: value %q is neither bool nor int", node.Line, node.Value)
}

// ParseValue parses "true", "false" or an integer.
func ParseValue(s string) (Value, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return True, nil
	case "false":
		return False, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing value %q: %w", s, err)
	}
	return Value(n), nil
}

// Fact is a single key/value assignment.
type Fact struct {
	Key   WorldKey
	Value Value
}

func (f Fact) String() string {
	return fmt.Sprintf("%s=%d", f.Key, f.Value)
}

// Conditions is a partial world state: only the listed keys are checked.
// Facts are kept sorted by key and unique, so two equal Conditions compare
// element-wise equal.
type Conditions []Fact

// NewConditions builds sorted Conditions from a map.
func NewConditions(m map[WorldKey]Value) Conditions {
	c := make(Conditions, 0, len(m))
	for k, v := range m {
		c = append(c, Fact{Key: k, Value: v})
	}
	slices.SortFunc(c, func(a, b Fact) int { return int(a.Key) - int(b.Key) })
	return c
}

// Keys returns the set of keys mentioned by c.
func (c Conditions) Keys() KeySet {
	var s KeySet
	for _, f := range c {
		s = s.Add(f.Key)
	}
	return s
}

// Lookup returns the value c assigns to k.
func (c Conditions) Lookup(k WorldKey) (Value, bool) {
	for _, f := range c {
		if f.Key == k {
			return f.Value, true
		}
	}
	return 0, false
}

func (c Conditions) String() string {
	parts := make([]string, len(c))
	for i, f := range c {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// WorldState is the full set of facts known to one agent. It is a comparable
// value type so it can be used directly as a map key by the planner.
type WorldState struct {
	values  [KeyCount]Value
	defined KeySet
}

// NewWorldState returns a state with the given facts defined.
func NewWorldState(facts ...Fact) WorldState {
	var s WorldState
	for _, f := range facts {
		s.Set(f.Key, f.Value)
	}
	return s
}

// Lookup returns the value of k and whether it has been defined.
func (s WorldState) Lookup(k WorldKey) (Value, bool) {
	if !k.Valid() || !s.defined.Has(k) {
		return 0, false
	}
	return s.values[k], true
}

// Get returns the value of k, or False if undefined.
func (s WorldState) Get(k WorldKey) Value {
	v, _ := s.Lookup(k)
	return v
}

// Set defines k as v.
func (s *WorldState) Set(k WorldKey, v Value) {
	if !k.Valid() {
		return
	}
	s.values[k] = v
	s.defined = s.defined.Add(k)
}

// Defined returns the set of keys that have a value.
func (s WorldState) Defined() KeySet {
	return s.defined
}

// Satisfies reports whether every fact in c holds in s. Undefined keys never match.
func (s WorldState) Satisfies(c Conditions) bool {
	for _, f := range c {
		if !s.defined.Has(f.Key) || s.values[f.Key] != f.Value {
			return false
		}
	}
	return true
}

// Mismatch counts the facts of c that do not hold in s.
func (s WorldState) Mismatch(c Conditions) int {
	n := 0
	for _, f := range c {
		if !s.defined.Has(f.Key) || s.values[f.Key] != f.Value {
			n++
		}
	}
	return n
}

// Apply returns a copy of s overwritten by effects.
func (s WorldState) Apply(effects Conditions) WorldState {
	for _, f := range effects {
		s.Set(f.Key, f.Value)
	}
	return s
}

// Facts returns the defined facts in key order.
func (s WorldState) Facts() []Fact {
	facts := make([]Fact, 0, s.defined.Len())
	for _, k := range s.defined.Keys() {
		facts = append(facts, Fact{Key: k, Value: s.values[k]})
	}
	return facts
}

// Map returns the defined facts keyed by name, for persistence and display.
func (s WorldState) Map() map[string]int32 {
	m := make(map[string]int32, s.defined.Len())
	for _, f := range s.Facts() {
		m[f.Key.String()] = int32(f.Value)
	}
	return m
}

// WorldStateFromMap is the inverse of Map.
func WorldStateFromMap(m map[string]int32) (WorldState, error) {
	var s WorldState
	for name, v := range m {
		k, err := ParseWorldKey(name)
		if err != nil {
			return WorldState{}, err
		}
		s.Set(k, Value(v))
	}
	return s, nil
}

func (s WorldState) String() string {
	return Conditions(s.Facts()).String()
}

package ai

import (
	"fmt"

	"github.com/udisondev/stealthai/internal/model"
)

// Store is the World-State Store of one agent. It is owned by the agent's
// decision cycle; callers outside the cycle go through Agent, which
// serializes access.
type Store struct {
	state model.WorldState
}

// NewStore returns a store holding initial.
func NewStore(initial model.WorldState) *Store {
	return &Store{state: initial}
}

// Get returns the value of k. Reading a key that was never initialized is a
// contract violation reported as ErrUndefinedKey.
func (s *Store) Get(k model.WorldKey) (model.Value, error) {
	v, ok := s.state.Lookup(k)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUndefinedKey, k)
	}
	return v, nil
}

// Set overwrites k unconditionally and reports whether the value changed.
// Initializing a key counts as a change.
func (s *Store) Set(k model.WorldKey, v model.Value) bool {
	old, ok := s.state.Lookup(k)
	s.state.Set(k, v)
	return !ok || old != v
}

// Defined reports whether k has been initialized.
func (s *Store) Defined(k model.WorldKey) bool {
	_, ok := s.state.Lookup(k)
	return ok
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() model.WorldState {
	return s.state
}

// Validate checks every key in required is initialized.
func (s *Store) Validate(required model.KeySet) error {
	missing := required.Without(s.state.Defined())
	if missing != 0 {
		return fmt.Errorf("%w: %s", ErrUndefinedKey, missing)
	}
	return nil
}

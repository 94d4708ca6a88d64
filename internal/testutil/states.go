package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/model"
)

// SavedState is one stored agent snapshot.
type SavedState struct {
	Kind  string
	Tick  uint64
	State model.WorldState
}

// MemoryStates is an in-memory world state store for tests.
// It stands in for db.WorldStateRepository without PostgreSQL.
type MemoryStates struct {
	mu      sync.RWMutex
	states  map[ai.AgentID]SavedState
	failFor map[ai.AgentID]bool
}

// NewMemoryStates creates an empty store.
func NewMemoryStates() *MemoryStates {
	return &MemoryStates{
		states:  make(map[ai.AgentID]SavedState),
		failFor: make(map[ai.AgentID]bool),
	}
}

// Put stores a snapshot directly.
func (m *MemoryStates) Put(agent ai.AgentID, kind string, state model.WorldState) {
	m.mu.Lock()
	m.states[agent] = SavedState{Kind: kind, State: state}
	m.mu.Unlock()
}

// FailSave makes Save fail for agent.
func (m *MemoryStates) FailSave(agent ai.AgentID) {
	m.mu.Lock()
	m.failFor[agent] = true
	m.mu.Unlock()
}

func (m *MemoryStates) Save(_ context.Context, agent ai.AgentID, kind string, tick uint64, state model.WorldState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failFor[agent] {
		return fmt.Errorf("saving agent %d: storage unavailable", agent)
	}
	m.states[agent] = SavedState{Kind: kind, Tick: tick, State: state}
	return nil
}

func (m *MemoryStates) Load(_ context.Context, agent ai.AgentID) (model.WorldState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.states[agent]
	return s.State, ok, nil
}

// Get returns the stored snapshot of agent.
func (m *MemoryStates) Get(agent ai.AgentID) (SavedState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[agent]
	return s, ok
}

// Len returns the number of stored snapshots.
func (m *MemoryStates) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}

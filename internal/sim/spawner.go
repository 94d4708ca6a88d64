package sim

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/data"
	"github.com/udisondev/stealthai/internal/game/planner"
	"github.com/udisondev/stealthai/internal/model"
)

// Agent kinds known to the scenario.
const (
	KindGuard    = "guard"
	KindCivilian = "civilian"
)

// spawnFacts are the facts each kind starts with on top of catalog defaults.
var spawnFacts = map[string][]model.Fact{
	KindGuard: {
		{Key: model.KeyHasWeapon, Value: model.True},
		{Key: model.KeyWeaponLoaded, Value: model.True},
		{Key: model.KeyHasMedKit, Value: model.True},
		{Key: model.KeyCoverAvailable, Value: model.True},
		{Key: model.KeyNearbyAlliesAvailable, Value: model.True},
		{Key: model.KeyNearAlarmPanel, Value: model.True},
	},
	KindCivilian: nil,
}

// StateStore loads saved agent world states.
type StateStore interface {
	Load(ctx context.Context, agent ai.AgentID) (model.WorldState, bool, error)
}

// StateSaver saves agent world states.
type StateSaver interface {
	Save(ctx context.Context, agent ai.AgentID, kind string, tick uint64, state model.WorldState) error
}

// SpawnerConfig configures agents created by a Spawner.
type SpawnerConfig struct {
	Catalog             *data.Catalog
	Profiles            map[string]data.Profile // per kind, optional
	Executors           ai.Executors
	Tracer              ai.Tracer
	Limits              planner.Limits
	MaxDispatchFailures int
	CooldownTicks       uint64
	PreemptInterval     uint64
	States              StateStore // optional, restores saved facts
}

// Spawner creates agents and registers them with the tick manager and the
// bridge.
type Spawner struct {
	cfg     SpawnerConfig
	manager *ai.TickManager
	bridge  *ai.Bridge

	catalogsMu sync.Mutex
	catalogs   map[string]*data.Catalog

	agents     sync.Map // map[ai.AgentID]*ai.Agent
	agentCount atomic.Int32
	nextID     atomic.Uint32
}

// NewSpawner creates a spawner.
func NewSpawner(cfg SpawnerConfig, manager *ai.TickManager, bridge *ai.Bridge) *Spawner {
	return &Spawner{
		cfg:      cfg,
		manager:  manager,
		bridge:   bridge,
		catalogs: make(map[string]*data.Catalog),
	}
}

// Catalog returns the catalog agents of kind plan with. Kinds with a
// profile get a derived catalog, built once and shared.
func (s *Spawner) Catalog(kind string) (*data.Catalog, error) {
	s.catalogsMu.Lock()
	defer s.catalogsMu.Unlock()

	if c, ok := s.catalogs[kind]; ok {
		return c, nil
	}
	c := s.cfg.Catalog
	if p, ok := s.cfg.Profiles[kind]; ok {
		derived, err := c.WithProfile(p)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", kind, err)
		}
		c = derived
	}
	s.catalogs[kind] = c
	return c, nil
}

// Spawn creates an agent of kind, restoring its saved facts if any.
func (s *Spawner) Spawn(ctx context.Context, kind string) (*ai.Agent, error) {
	c, err := s.Catalog(kind)
	if err != nil {
		return nil, err
	}

	id := ai.AgentID(s.nextID.Add(1))
	facts := slices.Clone(spawnFacts[kind])
	if s.cfg.States != nil {
		saved, ok, err := s.cfg.States.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("restoring agent %d: %w", id, err)
		}
		if ok {
			facts = append(facts, saved.Facts()...)
			slog.Debug("agent state restored", "agent", id, "facts", saved.Defined().Len())
		}
	}

	agent, err := ai.NewAgent(ai.AgentConfig{
		ID:                   id,
		Kind:                 kind,
		Catalog:              c,
		Facts:                facts,
		Executors:            s.cfg.Executors,
		Tracer:               s.cfg.Tracer,
		Limits:               s.cfg.Limits,
		MaxDispatchFailures:  s.cfg.MaxDispatchFailures,
		CooldownTicks:        s.cfg.CooldownTicks,
		PreemptIntervalTicks: s.cfg.PreemptInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("spawning %s: %w", kind, err)
	}

	s.agents.Store(id, agent)
	s.agentCount.Add(1)
	s.bridge.Attach(agent)
	s.manager.Register(agent)
	return agent, nil
}

// Despawn removes an agent.
func (s *Spawner) Despawn(id ai.AgentID) {
	if _, ok := s.agents.LoadAndDelete(id); !ok {
		return
	}
	s.agentCount.Add(-1)
	s.manager.Unregister(id)
	s.bridge.Detach(id)
}

// Agents returns spawned agents sorted by ID.
func (s *Spawner) Agents() []*ai.Agent {
	agents := make([]*ai.Agent, 0, s.Count())
	s.agents.Range(func(_, value any) bool {
		agents = append(agents, value.(*ai.Agent))
		return true
	})
	slices.SortFunc(agents, func(a, b *ai.Agent) int { return cmp.Compare(a.ID(), b.ID()) })
	return agents
}

// IDs returns the IDs of agents of kind in ascending order.
func (s *Spawner) IDs(kind string) []ai.AgentID {
	var ids []ai.AgentID
	for _, a := range s.Agents() {
		if a.Kind() == kind {
			ids = append(ids, a.ID())
		}
	}
	return ids
}

// Count returns the number of spawned agents.
func (s *Spawner) Count() int {
	return int(s.agentCount.Load())
}

// SaveAll saves every agent's world state. Failures are collected, not
// fatal.
func (s *Spawner) SaveAll(ctx context.Context, saver StateSaver, tick uint64) error {
	var errs []error
	for _, a := range s.Agents() {
		if err := saver.Save(ctx, a.ID(), a.Kind(), tick, a.Snapshot()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

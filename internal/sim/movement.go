package sim

import (
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/stealthai/internal/ai"
)

// DefaultTravelTicks is the travel time to targets without an explicit one.
const DefaultTravelTicks = 3

// Movement is a scripted ai.Movement. Each path takes a fixed number of
// status checks to arrive and may be blocked with a configured probability.
type Movement struct {
	mu          sync.Mutex
	rng         *rand.Rand
	blockChance float64
	travel      map[string]int
	paths       map[ai.PathHandle]*path
}

type path struct {
	agent   ai.AgentID
	target  string
	left    int
	blocked bool
}

// NewMovement returns a movement collaborator seeded with seed.
func NewMovement(seed uint64, blockChance float64) *Movement {
	return &Movement{
		rng:         rand.New(rand.NewPCG(seed, seed^0x5eed)),
		blockChance: blockChance,
		travel:      make(map[string]int),
		paths:       make(map[ai.PathHandle]*path),
	}
}

// SetTravel sets the travel time to target in ticks.
func (m *Movement) SetTravel(target string, ticks int) {
	m.mu.Lock()
	m.travel[target] = max(ticks, 0)
	m.mu.Unlock()
}

func (m *Movement) RequestPath(agent ai.AgentID, target string) (ai.PathHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticks, ok := m.travel[target]
	if !ok {
		ticks = DefaultTravelTicks
	}
	h := ai.PathHandle(uuid.NewString())
	m.paths[h] = &path{
		agent:   agent,
		target:  target,
		left:    ticks,
		blocked: m.blockChance > 0 && m.rng.Float64() < m.blockChance,
	}
	return h, nil
}

func (m *Movement) PathStatus(h ai.PathHandle) ai.PathStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.paths[h]
	if !ok {
		return ai.PathBlocked
	}
	if p.blocked {
		delete(m.paths, h)
		return ai.PathBlocked
	}
	if p.left > 0 {
		p.left--
		return ai.PathInProgress
	}
	delete(m.paths, h)
	return ai.PathArrived
}

func (m *Movement) Cancel(h ai.PathHandle) {
	m.mu.Lock()
	delete(m.paths, h)
	m.mu.Unlock()
}

// Active returns the number of paths in flight.
func (m *Movement) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.paths)
}

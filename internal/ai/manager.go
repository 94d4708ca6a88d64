package ai

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Flipper is called once per tick before any agent runs.
type Flipper interface {
	Flip(tick uint64)
}

// TickManager runs the decision cycle of every registered agent once per tick
type TickManager struct {
	controllers     sync.Map     // map[AgentID]Controller
	controllerCount atomic.Int32 // cached count of controllers (O(1) access)

	tick atomic.Uint64

	interval time.Duration
	workers  int
	flipper  Flipper

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTickManager creates a tick manager. workers <= 1 runs agents one at a
// time in ascending ID order; otherwise up to workers agents run in
// parallel. flipper may be nil.
func NewTickManager(interval time.Duration, workers int, flipper Flipper) *TickManager {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &TickManager{
		interval: interval,
		workers:  workers,
		flipper:  flipper,
		stopCh:   make(chan struct{}),
	}
}

// Register registers and starts a controller
func (m *TickManager) Register(controller Controller) {
	if _, loaded := m.controllers.Swap(controller.ID(), controller); !loaded {
		m.controllerCount.Add(1)
	}
	controller.Start()

	slog.Debug("agent registered",
		"agent", controller.ID(),
		"state", controller.State())
}

// Unregister stops and removes a controller
func (m *TickManager) Unregister(id AgentID) {
	value, ok := m.controllers.LoadAndDelete(id)
	if !ok {
		return
	}

	m.controllerCount.Add(-1)

	controller := value.(Controller)
	controller.Stop()

	slog.Debug("agent unregistered", "agent", id)
}

// Start runs the tick loop (blocks until context is canceled or Stop is called)
func (m *TickManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("tick manager started", "interval", m.interval, "workers", m.workers)

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick manager stopping", "tick", m.CurrentTick())
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("tick manager stopped", "tick", m.CurrentTick())
			return nil

		case <-ticker.C:
			m.Step(ctx)
		}
	}
}

// Stop stops the tick loop
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Step advances the simulation by one tick: flips the bridge, then runs
// every agent's cycle. Returns the tick number.
func (m *TickManager) Step(ctx context.Context) uint64 {
	tick := m.tick.Add(1)

	if m.flipper != nil {
		m.flipper.Flip(tick)
	}

	controllers := m.snapshot()

	if m.workers <= 1 {
		for _, c := range controllers {
			c.Tick(tick)
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(m.workers)
		for _, c := range controllers {
			g.Go(func() error {
				c.Tick(tick)
				return nil
			})
		}
		_ = g.Wait() // cycles never fail
	}

	if len(controllers) > 0 && IsDebugEnabled() {
		slog.Debug("tick completed", "tick", tick, "agents", len(controllers))
	}
	return tick
}

// snapshot returns registered controllers sorted by ID.
func (m *TickManager) snapshot() []Controller {
	controllers := make([]Controller, 0, m.Count())
	m.controllers.Range(func(_, value any) bool {
		controllers = append(controllers, value.(Controller))
		return true
	})
	slices.SortFunc(controllers, func(a, b Controller) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return controllers
}

// CurrentTick returns the last tick number started.
func (m *TickManager) CurrentTick() uint64 {
	return m.tick.Load()
}

// Count returns number of registered controllers (O(1) cached count)
func (m *TickManager) Count() int {
	return int(m.controllerCount.Load())
}

// GetController returns the controller for an agent
func (m *TickManager) GetController(id AgentID) (Controller, error) {
	value, ok := m.controllers.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAgentNotFound, id)
	}
	return value.(Controller), nil
}

package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/config"
	"github.com/udisondev/stealthai/internal/data"
	"github.com/udisondev/stealthai/internal/model"
)

// Executor timings of the scripted world, in polls.
const (
	combatDuration      = 1
	interactionDuration = 2
	hackingDuration     = 4
)

// World is a complete scripted simulation: bridge, scheduler, collaborators,
// spawner and scenario.
type World struct {
	Bridge   *ai.Bridge
	Manager  *ai.TickManager
	Spawner  *Spawner
	Scenario *Scenario
	Movement *Movement
}

// NewWorld wires a world from cfg. The scenario's agents are spawned
// immediately. states may be nil.
func NewWorld(ctx context.Context, cfg config.Sim, catalog *data.Catalog, tracer ai.Tracer, states StateStore) (*World, error) {
	bridge := ai.NewBridge(cfg.Morale.Tracker())
	scenario := NewScenario(bridge, cfg.Scenario.Seed, cfg.Scenario.GunshotEvery)
	manager := ai.NewTickManager(cfg.TickInterval, cfg.Workers, scenario)

	seed := cfg.Scenario.Seed
	movement := NewMovement(seed, 0.05)
	executors := ai.Executors{
		model.ExecutorMovement:    ai.NewMovementDispatcher(movement, cfg.Executor.MovementBlockedRetries),
		model.ExecutorCombat:      NewExecutor(model.ExecutorCombat, seed, combatDuration, 0.1, scenario.Observe),
		model.ExecutorInteraction: NewExecutor(model.ExecutorInteraction, seed, interactionDuration, 0.05, nil),
		model.ExecutorHacking:     NewExecutor(model.ExecutorHacking, seed, hackingDuration, 0.2, nil),
	}

	spawner := NewSpawner(SpawnerConfig{
		Catalog:             catalog,
		Profiles:            cfg.Profiles,
		Executors:           executors,
		Tracer:              tracer,
		Limits:              cfg.Planner.Limits(),
		MaxDispatchFailures: cfg.Executor.MaxDispatchFailures,
		CooldownTicks:       cfg.Executor.InfeasibleCooldownTicks,
		PreemptInterval:     cfg.Executor.PreemptIntervalTicks,
		States:              states,
	}, manager, bridge)
	scenario.SetRoster(spawner)

	for _, group := range []struct {
		kind  string
		count int
	}{
		{KindGuard, cfg.Scenario.Guards},
		{KindCivilian, cfg.Scenario.Civilians},
	} {
		for range group.count {
			if _, err := spawner.Spawn(ctx, group.kind); err != nil {
				return nil, fmt.Errorf("populating world: %w", err)
			}
		}
	}

	slog.Info("world populated",
		"guards", cfg.Scenario.Guards,
		"civilians", cfg.Scenario.Civilians,
		"workers", cfg.Workers)

	return &World{
		Bridge:   bridge,
		Manager:  manager,
		Spawner:  spawner,
		Scenario: scenario,
		Movement: movement,
	}, nil
}

// Run ticks the world until ctx is cancelled.
func (w *World) Run(ctx context.Context) error {
	return w.Manager.Start(ctx)
}

// Step advances the world by one tick.
func (w *World) Step(ctx context.Context) uint64 {
	return w.Manager.Step(ctx)
}

package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/config"
	"github.com/udisondev/stealthai/internal/data"
	"github.com/udisondev/stealthai/internal/model"
	"github.com/udisondev/stealthai/internal/testutil"
)

func testWorldConfig() config.Sim {
	cfg := config.DefaultSim()
	cfg.TickInterval = time.Millisecond
	cfg.Workers = 1
	cfg.Scenario.Guards = 2
	cfg.Scenario.Civilians = 2
	cfg.Scenario.GunshotEvery = 10
	return cfg
}

func TestWorld_GuardsEngageIntruder(t *testing.T) {
	t.Parallel()

	tracer := ai.NewRingTracer(256)
	w, err := NewWorld(context.Background(), testWorldConfig(), testutil.DefaultCatalog(t), tracer, nil)
	require.NoError(t, err)

	assert.Equal(t, []ai.AgentID{1, 2}, w.Spawner.IDs(KindGuard))
	assert.Equal(t, []ai.AgentID{3, 4}, w.Spawner.IDs(KindCivilian))

	for range 11 {
		w.Step(context.Background())
	}

	engaged := make(map[ai.AgentID]bool)
	for _, tr := range tracer.Records() {
		if tr.Tick == 11 && tr.NewGoal == "eliminate_threat" {
			engaged[tr.Agent] = true
		}
	}
	assert.Equal(t, map[ai.AgentID]bool{1: true, 2: true}, engaged)

	for _, id := range w.Spawner.IDs(KindCivilian) {
		m, ok := w.Bridge.Morale(id)
		require.True(t, ok)
		assert.Less(t, m, 100.0, "civilian %d heard the gunfire", id)
	}
}

func TestWorld_RestoresAndSavesState(t *testing.T) {
	t.Parallel()

	states := testutil.NewMemoryStates()
	states.Put(3, KindCivilian, model.NewWorldState(model.Fact{Key: model.KeyIsPanicked, Value: model.True}))

	cfg := testWorldConfig()
	cfg.Scenario.GunshotEvery = 0
	w, err := NewWorld(context.Background(), cfg, testutil.DefaultCatalog(t), nil, states)
	require.NoError(t, err)

	tick := w.Step(context.Background())
	agents := w.Spawner.Agents()
	require.Len(t, agents, 4)
	assert.Equal(t, "panic_survival", agents[2].Context().Goal)

	saved := testutil.NewMemoryStates()
	require.NoError(t, w.Spawner.SaveAll(context.Background(), saved, tick))
	assert.Equal(t, 4, saved.Len())
	got, ok := saved.Get(3)
	require.True(t, ok)
	assert.Equal(t, KindCivilian, got.Kind)
}

func TestWorld_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	w, err := NewWorld(context.Background(), testWorldConfig(), testutil.DefaultCatalog(t), nil, nil)
	require.NoError(t, err)

	ctx := testutil.ContextWithTimeout(t, 50*time.Millisecond)
	err = w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, w.Manager.CurrentTick())
}

func TestWorld_InvalidProfile(t *testing.T) {
	t.Parallel()

	cfg := testWorldConfig()
	cfg.Profiles = map[string]data.Profile{KindCivilian: {Teamwork: -1}}
	_, err := NewWorld(context.Background(), cfg, testutil.DefaultCatalog(t), nil, nil)
	require.Error(t, err)
}

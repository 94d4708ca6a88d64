package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/game/morale"
	"github.com/udisondev/stealthai/internal/model"
)

type staticRoster map[string][]ai.AgentID

func (r staticRoster) IDs(kind string) []ai.AgentID { return r[kind] }

// inbox records facts delivered to one agent.
type inbox struct {
	id    ai.AgentID
	mu    sync.Mutex
	facts map[model.WorldKey]model.Value
}

func newInbox(id ai.AgentID) *inbox {
	return &inbox{id: id, facts: make(map[model.WorldKey]model.Value)}
}

func (i *inbox) ID() ai.AgentID { return i.id }

func (i *inbox) Deliver(facts ...model.Fact) {
	i.mu.Lock()
	for _, f := range facts {
		i.facts[f.Key] = f.Value
	}
	i.mu.Unlock()
}

func (i *inbox) get(k model.WorldKey) (model.Value, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.facts[k]
	return v, ok
}

func newTestScenario(every uint64) (*Scenario, *ai.Bridge, map[ai.AgentID]*inbox) {
	bridge := ai.NewBridge(morale.DefaultConfig())
	boxes := make(map[ai.AgentID]*inbox)
	for _, id := range []ai.AgentID{1, 2, 3, 4} {
		boxes[id] = newInbox(id)
		bridge.Attach(boxes[id])
	}
	s := NewScenario(bridge, 7, every)
	s.SetRoster(staticRoster{
		KindGuard:    {1, 2},
		KindCivilian: {3, 4},
	})
	return s, bridge, boxes
}

func TestScenario_IntruderVisit(t *testing.T) {
	t.Parallel()

	s, _, boxes := newTestScenario(10)

	s.Flip(10)
	_, delivered := boxes[1].get(model.KeyHasTarget)
	assert.False(t, delivered, "events of a tick are delivered on the next flip")

	s.Flip(11)
	for _, id := range []ai.AgentID{1, 2} {
		v, ok := boxes[id].get(model.KeyHasTarget)
		require.True(t, ok)
		assert.Equal(t, model.True, v)
		v, _ = boxes[id].get(model.KeyAlertLevel)
		assert.Equal(t, model.Value(1), v)
	}
	for _, id := range []ai.AgentID{3, 4} {
		v, ok := boxes[id].get(model.KeyHeardSound)
		require.True(t, ok)
		assert.Equal(t, model.True, v)
		_, ok = boxes[id].get(model.KeyHasTarget)
		assert.False(t, ok, "civilians do not see the intruder")
	}

	s.Flip(15)
	s.Flip(16)
	v, _ := boxes[1].get(model.KeyHasTarget)
	assert.Equal(t, model.False, v, "intruder withdrew")
}

func TestScenario_ThirdVisitHacksDevice(t *testing.T) {
	t.Parallel()

	s, _, boxes := newTestScenario(4)

	for tick := uint64(1); tick <= 9; tick++ {
		s.Flip(tick)
	}
	_, ok := boxes[1].get(model.KeyDeviceHacked)
	assert.False(t, ok)

	s.Flip(12)
	s.Flip(13)
	v, ok := boxes[1].get(model.KeyDeviceHacked)
	require.True(t, ok)
	assert.Equal(t, model.True, v)
	v, _ = boxes[2].get(model.KeyAlertLevel)
	assert.Equal(t, model.Value(2), v)
}

func TestScenario_GunfireFrightensCivilians(t *testing.T) {
	t.Parallel()

	s, bridge, _ := newTestScenario(0)
	attack := &model.Action{Name: "attack", Binding: model.Binding{Kind: model.ExecutorCombat}}
	calm := &model.Action{Name: "calm_down", Binding: model.Binding{Kind: model.ExecutorInteraction}}

	s.Observe(1, calm)
	s.Flip(1)
	m, _ := bridge.Morale(3)
	assert.InDelta(t, 100, m, 1e-9)

	s.Observe(1, attack)
	s.Flip(2)
	m, _ = bridge.Morale(3)
	assert.InDelta(t, 85, m, 1e-9)
	m, _ = bridge.Morale(1)
	assert.InDelta(t, 100, m, 1e-9, "the shooter is not frightened")
}

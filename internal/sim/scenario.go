package sim

import (
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/model"
)

// Roster lists agents by kind.
type Roster interface {
	IDs(kind string) []ai.AgentID
}

// Scenario scripts an intruder visiting the facility. Every Every ticks the
// intruder shows up: guards see a target, everyone hears gunfire and one
// guard is hit. Halfway through the cycle the intruder slips away and leaves
// a noise behind. Every third visit also hacks a device.
//
// Scenario is the tick manager's Flipper: it flips the bridge, then publishes
// the events of the new tick, which agents see on the following tick.
type Scenario struct {
	bridge *ai.Bridge
	roster Roster
	rng    *rand.Rand
	every  uint64
	visits int
}

// NewScenario creates a scenario publishing to bridge. every == 0 disables
// the intruder.
func NewScenario(bridge *ai.Bridge, seed, every uint64) *Scenario {
	return &Scenario{
		bridge: bridge,
		rng:    rand.New(rand.NewPCG(seed, seed^0x1d)),
		every:  every,
	}
}

// SetRoster sets where agents are looked up.
func (s *Scenario) SetRoster(r Roster) {
	s.roster = r
}

// Flip implements ai.Flipper.
func (s *Scenario) Flip(tick uint64) {
	s.bridge.Flip(tick)
	if s.roster == nil || s.every == 0 {
		return
	}

	switch tick % s.every {
	case 0:
		s.intrude(tick)
	case s.every / 2:
		s.withdraw(tick)
	}
}

func (s *Scenario) intrude(tick uint64) {
	guards := s.roster.IDs(KindGuard)
	civilians := s.roster.IDs(KindCivilian)
	s.visits++

	for _, id := range guards {
		s.bridge.Publish(ai.PerceptionEvent{Agent: id, Facts: []model.Fact{
			{Key: model.KeyHasTarget, Value: model.True},
			{Key: model.KeyTargetVisible, Value: model.True},
			{Key: model.KeyUnderFire, Value: model.True},
		}})
	}
	if len(guards) > 0 {
		s.bridge.Publish(ai.AlertEvent{Agents: guards, Level: 1})
	}
	if everyone := slices.Concat(guards, civilians); len(everyone) > 0 {
		s.bridge.Publish(ai.GunshotEvent{Agents: everyone})
	}

	if len(guards) > 0 {
		hit := guards[s.rng.IntN(len(guards))]
		s.bridge.Publish(ai.DamageEvent{Target: hit, Witnesses: s.sample(civilians, 3)})
	}

	if s.visits%3 == 0 && len(guards) > 0 {
		s.bridge.Publish(ai.DeviceHackedEvent{Agents: guards, Device: "security-terminal"})
		s.bridge.Publish(ai.AlertEvent{Agents: guards, Level: 2})
	}

	slog.Info("intruder spotted", "tick", tick, "visit", s.visits, "guards", len(guards), "civilians", len(civilians))
}

func (s *Scenario) withdraw(tick uint64) {
	guards := s.roster.IDs(KindGuard)
	for _, id := range guards {
		s.bridge.Publish(ai.PerceptionEvent{Agent: id, Facts: []model.Fact{
			{Key: model.KeyHasTarget, Value: model.False},
			{Key: model.KeyTargetVisible, Value: model.False},
			{Key: model.KeyUnderFire, Value: model.False},
		}})
	}
	if len(guards) > 0 {
		id := guards[s.rng.IntN(len(guards))]
		s.bridge.Publish(ai.PerceptionEvent{Agent: id, Facts: []model.Fact{
			{Key: model.KeyHeardSound, Value: model.True},
			{Key: model.KeyIsAlert, Value: model.False},
		}})
	}
	slog.Info("intruder withdrew", "tick", tick)
}

// Observe is the combat executor's Observer: shots fired by guards frighten
// the civilians.
func (s *Scenario) Observe(agent ai.AgentID, action *model.Action) {
	if s.roster == nil || action.Binding.Kind != model.ExecutorCombat {
		return
	}
	civilians := s.roster.IDs(KindCivilian)
	if len(civilians) == 0 {
		return
	}
	s.bridge.Publish(ai.GunshotEvent{Agents: civilians})
}

// sample picks up to n distinct IDs.
func (s *Scenario) sample(ids []ai.AgentID, n int) []ai.AgentID {
	if len(ids) <= n {
		return slices.Clone(ids)
	}
	picked := slices.Clone(ids)
	s.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	picked = picked[:n]
	slices.Sort(picked)
	return picked
}

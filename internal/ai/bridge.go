package ai

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/udisondev/stealthai/internal/game/morale"
	"github.com/udisondev/stealthai/internal/model"
)

// Event is a gameplay event translated by the Bridge into fact writes.
type Event interface {
	event()
}

// AlertEvent raises the alert of the listed agents. Scope (radius, faction)
// is decided by the producer.
type AlertEvent struct {
	Agents   []AgentID
	Facility bool // facility-wide alarm
	Level    int  // AlertLevel to set, 0 leaves it unchanged
}

// DamageEvent reports a hit on Target seen by Witnesses.
type DamageEvent struct {
	Target    AgentID
	Witnesses []AgentID
}

// GunshotEvent reports a gunshot heard by the listed agents.
type GunshotEvent struct {
	Agents []AgentID
}

// PanicSpreadEvent reports a panicking agent near the listed agents.
type PanicSpreadEvent struct {
	Agents []AgentID
}

// DeviceHackedEvent reports a compromised device noticed by the listed agents.
type DeviceHackedEvent struct {
	Agents []AgentID
	Device string
}

// PerceptionEvent carries raw sensor facts for one agent.
type PerceptionEvent struct {
	Agent AgentID
	Facts []model.Fact
}

func (AlertEvent) event()        {}
func (DamageEvent) event()       {}
func (GunshotEvent) event()      {}
func (PanicSpreadEvent) event()  {}
func (DeviceHackedEvent) event() {}
func (PerceptionEvent) event()   {}

// Recipient receives fact writes from the Bridge.
type Recipient interface {
	ID() AgentID
	Deliver(facts ...model.Fact)
}

type bridgeAgent struct {
	recipient Recipient
	morale    *morale.Tracker
}

// Bridge is the Reactive Event Bridge. Events published during tick T are
// translated and delivered by Flip at the start of tick T+1, so no agent sees
// another agent's writes from the same tick.
type Bridge struct {
	moraleCfg morale.Config

	mu      sync.Mutex
	pending []Event

	agentsMu sync.Mutex
	agents   map[AgentID]*bridgeAgent
}

// NewBridge returns a bridge tracking morale with cfg.
func NewBridge(cfg morale.Config) *Bridge {
	return &Bridge{
		moraleCfg: cfg,
		agents:    make(map[AgentID]*bridgeAgent),
	}
}

// factReader is implemented by recipients that expose their facts.
type factReader interface {
	Fact(k model.WorldKey) (model.Value, error)
}

// Attach starts delivering events to r. A recipient already panicking, e.g.
// restored from a save, starts with morale at the panic threshold so
// recovery clears it like any other panic.
func (b *Bridge) Attach(r Recipient) {
	tracker := morale.NewTracker(b.moraleCfg)
	if fr, ok := r.(factReader); ok {
		if v, err := fr.Fact(model.KeyIsPanicked); err == nil && v == model.True {
			tracker.SetPanicked(true)
		}
	}

	b.agentsMu.Lock()
	b.agents[r.ID()] = &bridgeAgent{recipient: r, morale: tracker}
	b.agentsMu.Unlock()
}

// Detach stops delivering events to id.
func (b *Bridge) Detach(id AgentID) {
	b.agentsMu.Lock()
	delete(b.agents, id)
	b.agentsMu.Unlock()
}

// Morale returns the morale of id.
func (b *Bridge) Morale(id AgentID) (float64, bool) {
	b.agentsMu.Lock()
	defer b.agentsMu.Unlock()
	ba, ok := b.agents[id]
	if !ok {
		return 0, false
	}
	return ba.morale.Current(), true
}

// Publish queues e for the next Flip. Safe for concurrent use.
func (b *Bridge) Publish(e Event) {
	b.mu.Lock()
	b.pending = append(b.pending, e)
	b.mu.Unlock()
}

// Flip translates everything published since the previous Flip and applies
// one tick of morale recovery. Called once per tick before any agent runs.
func (b *Bridge) Flip(tick uint64) {
	b.mu.Lock()
	events := b.pending
	b.pending = nil
	b.mu.Unlock()

	b.agentsMu.Lock()
	defer b.agentsMu.Unlock()

	out := make(map[AgentID][]model.Fact)
	shaken := make(map[AgentID]struct{})
	for _, e := range events {
		b.translate(e, out, shaken)
	}

	// Recovery runs for agents whose morale was not hit this tick.
	for id, ba := range b.agents {
		if _, hit := shaken[id]; hit {
			continue
		}
		if ba.morale.Recover() == morale.Recovered {
			out[id] = append(out[id], model.Fact{Key: model.KeyIsPanicked, Value: model.False})
		}
	}

	ids := make([]AgentID, 0, len(out))
	for id := range out {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		ba, ok := b.agents[id]
		if !ok {
			continue
		}
		ba.recipient.Deliver(out[id]...)
	}

	if len(events) > 0 && IsDebugEnabled() {
		slog.Debug("bridge flipped", "tick", tick, "events", len(events), "recipients", len(ids))
	}
}

func (b *Bridge) translate(e Event, out map[AgentID][]model.Fact, shaken map[AgentID]struct{}) {
	add := func(id AgentID, facts ...model.Fact) {
		out[id] = append(out[id], facts...)
	}
	hit := func(id AgentID, cause morale.Cause) {
		ba, ok := b.agents[id]
		if !ok {
			return
		}
		shaken[id] = struct{}{}
		if ba.morale.Hit(cause) == morale.Panicked {
			add(id, model.Fact{Key: model.KeyIsPanicked, Value: model.True})
		}
	}

	switch ev := e.(type) {
	case AlertEvent:
		for _, id := range ev.Agents {
			add(id, model.Fact{Key: model.KeyIsAlert, Value: model.True})
			if ev.Facility {
				add(id, model.Fact{Key: model.KeyFacilityAlert, Value: model.True})
			}
			if ev.Level > 0 {
				add(id, model.Fact{Key: model.KeyAlertLevel, Value: model.Value(ev.Level)})
			}
		}

	case DamageEvent:
		add(ev.Target,
			model.Fact{Key: model.KeyIsInjured, Value: model.True},
			model.Fact{Key: model.KeyUnderFire, Value: model.True},
		)
		hit(ev.Target, morale.CauseDirectHit)
		for _, id := range ev.Witnesses {
			if id != ev.Target {
				hit(id, morale.CauseWitness)
			}
		}

	case GunshotEvent:
		for _, id := range ev.Agents {
			add(id, model.Fact{Key: model.KeyHeardSound, Value: model.True})
			hit(id, morale.CauseGunshot)
		}

	case PanicSpreadEvent:
		for _, id := range ev.Agents {
			hit(id, morale.CausePanicSpread)
		}

	case DeviceHackedEvent:
		for _, id := range ev.Agents {
			add(id,
				model.Fact{Key: model.KeyDeviceHacked, Value: model.True},
				model.Fact{Key: model.KeyHasTarget, Value: model.True},
			)
		}

	case PerceptionEvent:
		add(ev.Agent, ev.Facts...)
		if ba, ok := b.agents[ev.Agent]; ok {
			for _, f := range ev.Facts {
				if f.Key == model.KeyIsPanicked {
					ba.morale.SetPanicked(f.Value == model.True)
				}
			}
		}

	default:
		slog.Warn("unknown bridge event", "type", fmt.Sprintf("%T", e))
	}
}

// integrityWarn limits data-integrity warnings to one per interval so a bad
// catalog cannot flood the log.
var integrityWarn = rate.Sometimes{Interval: 10 * time.Second}

// warnUninitialized reports a bridge write to a key the agent never
// initialized. The key is initialized with its catalog default first.
func warnUninitialized(agent AgentID, k model.WorldKey, def model.Value) {
	integrityWarn.Do(func() {
		slog.Warn("write to uninitialized key, using catalog default",
			"agent", agent,
			"key", k,
			"default", def)
	})
}

package ai

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/udisondev/stealthai/internal/data"
	"github.com/udisondev/stealthai/internal/game/planner"
	"github.com/udisondev/stealthai/internal/model"
)

const (
	DefaultMaxDispatchFailures = 3
	DefaultCooldownTicks       = 10

	// DefaultPreemptIntervalTicks is how often an executing agent looks for
	// an outranking goal when none of its facts changed.
	DefaultPreemptIntervalTicks = 5

	// maxTransitionsPerCycle bounds the state machine within one Tick so a
	// collaborator answering synchronously cannot spin an agent forever.
	maxTransitionsPerCycle = 8
)

// AgentConfig configures a new Agent.
type AgentConfig struct {
	ID        AgentID
	Kind      string
	Catalog   *data.Catalog
	Facts     []model.Fact // spawn facts applied over catalog defaults
	Executors Executors
	Tracer    Tracer
	Limits    planner.Limits

	// MaxDispatchFailures failed actions in a row put the goal on cooldown
	// for CooldownTicks ticks.
	MaxDispatchFailures int
	CooldownTicks       uint64

	// PreemptIntervalTicks throttles the outranking-goal check while
	// executing. A tick that changed any fact always checks.
	PreemptIntervalTicks uint64
}

// PlanningContext is a read-only view of an agent's planning state.
type PlanningContext struct {
	Agent          AgentID
	Kind           string
	State          model.PlanState
	World          model.WorldState
	Goal           string
	Plan           []string
	Step           int
	LastReason     Reason
	LastReplanTick uint64
}

// Agent is the Plan Executor of one planner-controlled agent. It owns the
// agent's Store, Selector, active goal and plan.
type Agent struct {
	id            AgentID
	kind          string
	catalog       *data.Catalog
	executors     Executors
	tracer        Tracer
	selector      *Selector
	maxFailures   int
	cooldownTicks uint64
	preemptEvery  uint64

	running atomic.Bool
	state   atomic.Int32 // model.PlanState

	inboxMu sync.Mutex
	inbox   []model.Fact

	// mu is held for a whole decision cycle.
	mu           sync.Mutex
	store        *Store
	tick         uint64
	goal         *model.Goal
	plan         *model.Plan
	step         int
	inflight     ActionHandle
	dispatcher   Dispatcher
	failures     map[*model.Goal]int
	cooldown     map[*model.Goal]uint64 // goal -> first tick it may be selected again
	failedAction string
	pending      Reason // reason carried into Replanning
	lastReason   Reason
	lastReplan   uint64
	lastSelect   uint64 // tick of the last goal selection
}

// NewAgent validates cfg and returns an idle agent. Errors here are startup
// errors: a key the catalog needs is not initialized, or an executor kind
// has no dispatcher.
func NewAgent(cfg AgentConfig) (*Agent, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("agent: nil catalog")
	}

	initial := cfg.Catalog.Defaults()
	for _, f := range cfg.Facts {
		if !f.Key.Valid() {
			return nil, fmt.Errorf("agent %d: %w: %d", cfg.ID, model.ErrUnknownKey, uint8(f.Key))
		}
		initial.Set(f.Key, f.Value)
	}
	store := NewStore(initial)
	if err := store.Validate(cfg.Catalog.Referenced()); err != nil {
		return nil, fmt.Errorf("agent %d: %w", cfg.ID, err)
	}
	if err := cfg.Executors.Validate(cfg.Catalog); err != nil {
		return nil, fmt.Errorf("agent %d: %w", cfg.ID, err)
	}

	if cfg.Tracer == nil {
		cfg.Tracer = TracerFunc(func(Trace) {})
	}
	if cfg.MaxDispatchFailures <= 0 {
		cfg.MaxDispatchFailures = DefaultMaxDispatchFailures
	}
	if cfg.CooldownTicks == 0 {
		cfg.CooldownTicks = DefaultCooldownTicks
	}
	if cfg.PreemptIntervalTicks == 0 {
		cfg.PreemptIntervalTicks = DefaultPreemptIntervalTicks
	}

	return &Agent{
		id:            cfg.ID,
		kind:          cfg.Kind,
		catalog:       cfg.Catalog,
		executors:     cfg.Executors,
		tracer:        cfg.Tracer,
		selector:      NewSelector(cfg.Catalog, cfg.Limits),
		maxFailures:   cfg.MaxDispatchFailures,
		cooldownTicks: cfg.CooldownTicks,
		preemptEvery:  cfg.PreemptIntervalTicks,
		store:         store,
		failures:      make(map[*model.Goal]int),
		cooldown:      make(map[*model.Goal]uint64),
	}, nil
}

// ID returns the agent ID.
func (a *Agent) ID() AgentID { return a.id }

// Kind returns the agent kind (guard, civilian...).
func (a *Agent) Kind() string { return a.kind }

// State returns the plan executor state.
func (a *Agent) State() model.PlanState {
	return model.PlanState(a.state.Load())
}

func (a *Agent) setState(s model.PlanState) {
	a.state.Store(int32(s))
}

// Start starts the agent.
func (a *Agent) Start() {
	a.running.Store(true)
	slog.Debug("agent started", "agent", a.id, "kind", a.kind, "state", a.State())
}

// Stop stops the agent and cancels its in-flight action.
func (a *Agent) Stop() {
	a.running.Store(false)

	a.mu.Lock()
	a.cancelInFlight()
	a.goal, a.plan, a.step = nil, nil, 0
	a.setState(model.PlanStateIdle)
	a.mu.Unlock()

	slog.Debug("agent stopped", "agent", a.id)
}

// Deliver queues external fact writes for the next cycle. Safe for
// concurrent use.
func (a *Agent) Deliver(facts ...model.Fact) {
	a.inboxMu.Lock()
	a.inbox = append(a.inbox, facts...)
	a.inboxMu.Unlock()
}

// Fact returns the current value of k.
func (a *Agent) Fact(k model.WorldKey) (model.Value, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Get(k)
}

// Snapshot returns the agent's current world state.
func (a *Agent) Snapshot() model.WorldState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Snapshot()
}

// Context returns a copy of the planning context.
func (a *Agent) Context() PlanningContext {
	a.mu.Lock()
	defer a.mu.Unlock()

	return PlanningContext{
		Agent:          a.id,
		Kind:           a.kind,
		State:          a.State(),
		World:          a.store.Snapshot(),
		Goal:           model.GoalName(a.goal),
		Plan:           a.plan.Names(),
		Step:           a.step,
		LastReason:     a.lastReason,
		LastReplanTick: a.lastReplan,
	}
}

// Tick runs one decision cycle.
func (a *Agent) Tick(tick uint64) {
	if !a.running.Load() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.tick = tick
	dirty := a.drainInbox()

	start := a.State()
	if start == model.PlanStateExecuting {
		if a.interrupted(dirty) {
			if IsDebugEnabled() {
				slog.Debug("plan interrupted", "agent", a.id, "goal", a.goal.Name, "keys", dirty)
			}
			a.cancelInFlight()
			a.pending = ReasonWorldChanged
			a.setState(model.PlanStateReplanning)
		} else if a.preemptDue(dirty) {
			a.lastSelect = tick
			if plan := a.selector.Select(a.store.Snapshot(), a.goal, a.coolingDown); plan != nil {
				a.cancelInFlight()
				a.install(plan, ReasonGoalChanged, a.goal, "")
			}
		}
	}

	planned := false
	for range maxTransitionsPerCycle {
		switch a.State() {
		case model.PlanStateIdle:
			if start != model.PlanStateIdle || planned {
				return
			}
			planned = true
			a.replan(ReasonGoalChanged)

		case model.PlanStatePlanComplete:
			// A plan that completes during this cycle is redecided next cycle.
			if start != model.PlanStatePlanComplete || planned {
				return
			}
			planned = true
			a.replan(ReasonPlanComplete)

		case model.PlanStateReplanning:
			if planned {
				return
			}
			planned = true
			a.replan(a.pending)

		case model.PlanStateExecuting:
			if !a.poll() {
				return
			}

		case model.PlanStateActionSucceeded:
			a.succeed()

		case model.PlanStateActionFailed:
			a.fail()

		default:
			return
		}
	}
}

// drainInbox applies queued external writes and returns the keys whose value
// changed.
func (a *Agent) drainInbox() model.KeySet {
	a.inboxMu.Lock()
	facts := a.inbox
	a.inbox = nil
	a.inboxMu.Unlock()

	if len(facts) == 0 {
		return 0
	}

	before := a.store.Snapshot()
	for _, f := range facts {
		if !f.Key.Valid() {
			continue
		}
		if !a.store.Defined(f.Key) {
			def, _ := a.catalog.Default(f.Key)
			a.store.Set(f.Key, def)
			warnUninitialized(a.id, f.Key, def)
		}
		a.store.Set(f.Key, f.Value)
	}

	after := a.store.Snapshot()
	var dirty model.KeySet
	for _, f := range facts {
		old, had := before.Lookup(f.Key)
		if now := after.Get(f.Key); !had || old != now {
			dirty = dirty.Add(f.Key)
		}
	}
	return dirty
}

// interrupted reports whether dirty touches the active goal or the pending
// action's preconditions.
func (a *Agent) interrupted(dirty model.KeySet) bool {
	if dirty == 0 || a.goal == nil {
		return false
	}
	watched := a.goal.Desired.Keys()
	if a.plan != nil && a.step < a.plan.Len() {
		watched = watched.Union(a.plan.Steps[a.step].ReadKeys())
	}
	return dirty.Intersects(watched)
}

// preemptDue reports whether this cycle looks for an outranking goal.
func (a *Agent) preemptDue(dirty model.KeySet) bool {
	return dirty != 0 || a.tick-a.lastSelect >= a.preemptEvery
}

func (a *Agent) coolingDown(g *model.Goal) bool {
	until, ok := a.cooldown[g]
	if !ok {
		return false
	}
	if a.tick >= until {
		delete(a.cooldown, g)
		return false
	}
	return true
}

// replan runs goal selection from scratch.
func (a *Agent) replan(reason Reason) {
	a.setState(model.PlanStatePlanning)

	old := a.goal
	failed := a.failedAction
	a.failedAction = ""

	a.lastSelect = a.tick
	plan := a.selector.Select(a.store.Snapshot(), nil, a.coolingDown)
	if plan != nil {
		a.install(plan, reason, old, failed)
		return
	}

	a.goal, a.plan, a.step = nil, nil, 0
	a.setState(model.PlanStateIdle)
	if old == nil && failed == "" {
		return
	}
	if reason != ReasonActionFailed {
		reason = ReasonNoFeasibleGoal
	}
	a.emit(reason, old, nil, failed)
}

// install makes plan the active plan. Its first step is dispatched by the
// Executing transition.
func (a *Agent) install(plan *model.Plan, reason Reason, old *model.Goal, failed string) {
	a.goal, a.plan, a.step = plan.Goal, plan, 0
	if plan.Len() == 0 {
		// The reachable part of the goal already holds; the rest is waiting
		// on an external writer. Keep the goal.
		a.setState(model.PlanStatePlanComplete)
		if old == plan.Goal && reason == ReasonPlanComplete {
			return
		}
	} else {
		a.setState(model.PlanStateExecuting)
	}
	a.emit(reason, old, plan, failed)
}

func (a *Agent) emit(reason Reason, old *model.Goal, plan *model.Plan, failed string) {
	a.lastReason = reason
	a.lastReplan = a.tick

	t := Trace{
		Agent:      a.id,
		Tick:       a.tick,
		OldGoal:    model.GoalName(old),
		PlanLength: plan.Len(),
		Reason:     reason,
		Action:     failed,
	}
	if plan != nil {
		t.NewGoal = plan.Goal.Name
		t.Expanded = plan.Expanded
		t.Cost = plan.Cost
	}
	a.tracer.Record(t)

	if IsDebugEnabled() {
		slog.Debug("agent replanned", "trace", t, "plan", plan.Names())
	}
}

// poll dispatches the current step if needed and checks its outcome.
// Returns false while the action is in progress.
func (a *Agent) poll() bool {
	action := a.plan.Steps[a.step]

	if a.inflight == "" {
		d := a.executors[action.Binding.Kind]
		h, err := d.Dispatch(a.id, action)
		if err != nil {
			if IsDebugEnabled() {
				slog.Debug("dispatch rejected", "agent", a.id, "action", action.Name, "error", err)
			}
			a.setState(model.PlanStateActionFailed)
			return true
		}
		a.inflight, a.dispatcher = h, d
	}

	switch a.dispatcher.Poll(a.inflight) {
	case StatusSucceeded:
		a.inflight, a.dispatcher = "", nil
		a.setState(model.PlanStateActionSucceeded)
		return true
	case StatusFailed:
		a.inflight, a.dispatcher = "", nil
		a.setState(model.PlanStateActionFailed)
		return true
	}
	return false
}

// succeed applies the finished step's effects and moves to the next step.
func (a *Agent) succeed() {
	for _, f := range a.plan.Steps[a.step].Effects {
		a.store.Set(f.Key, f.Value)
	}
	a.step++
	if a.step >= a.plan.Len() {
		delete(a.failures, a.goal)
		a.setState(model.PlanStatePlanComplete)
		return
	}
	a.setState(model.PlanStateExecuting)
}

// fail discards the plan. Repeated failures put the goal on cooldown.
func (a *Agent) fail() {
	action := a.plan.Steps[a.step]
	a.failedAction = action.Name

	n := a.failures[a.goal] + 1
	if n >= a.maxFailures {
		delete(a.failures, a.goal)
		a.cooldown[a.goal] = a.tick + a.cooldownTicks
		slog.Info("goal on cooldown after repeated failures",
			"agent", a.id,
			"goal", a.goal.Name,
			"failures", n,
			"until", a.cooldown[a.goal])
	} else {
		a.failures[a.goal] = n
	}

	a.pending = ReasonActionFailed
	a.setState(model.PlanStateReplanning)
}

// cancelInFlight abandons the dispatched action, if any.
func (a *Agent) cancelInFlight() {
	if a.inflight == "" {
		return
	}
	a.dispatcher.Cancel(a.inflight)
	a.inflight, a.dispatcher = "", nil
}

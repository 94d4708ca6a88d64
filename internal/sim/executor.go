package sim

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/model"
)

// Observer is told about every action an Executor completed successfully.
type Observer func(agent ai.AgentID, action *model.Action)

// Executor is a scripted ai.Dispatcher for one executor kind. Every action
// takes Duration polls and fails with probability FailChance.
type Executor struct {
	kind       model.ExecutorKind
	duration   int
	failChance float64
	observer   Observer

	mu   sync.Mutex
	rng  *rand.Rand
	jobs map[ai.ActionHandle]*job
}

type job struct {
	agent  ai.AgentID
	action *model.Action
	left   int
	fail   bool
}

// NewExecutor returns an executor for kind. observer may be nil.
func NewExecutor(kind model.ExecutorKind, seed uint64, duration int, failChance float64, observer Observer) *Executor {
	return &Executor{
		kind:       kind,
		duration:   max(duration, 0),
		failChance: failChance,
		observer:   observer,
		rng:        rand.New(rand.NewPCG(seed, uint64(kind)+1)),
		jobs:       make(map[ai.ActionHandle]*job),
	}
}

func (e *Executor) Dispatch(agent ai.AgentID, action *model.Action) (ai.ActionHandle, error) {
	if action.Binding.Kind != e.kind {
		return "", fmt.Errorf("%w: %s is bound to %s, not %s",
			ai.ErrActionDispatchFailed, action.Name, action.Binding.Kind, e.kind)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	h := ai.ActionHandle(uuid.NewString())
	e.jobs[h] = &job{
		agent:  agent,
		action: action,
		left:   e.duration,
		fail:   e.failChance > 0 && e.rng.Float64() < e.failChance,
	}
	return h, nil
}

func (e *Executor) Poll(h ai.ActionHandle) ai.ActionStatus {
	e.mu.Lock()
	j, ok := e.jobs[h]
	if !ok {
		e.mu.Unlock()
		return ai.StatusFailed
	}
	if j.left > 0 {
		j.left--
		e.mu.Unlock()
		return ai.StatusInProgress
	}
	delete(e.jobs, h)
	e.mu.Unlock()

	if j.fail {
		return ai.StatusFailed
	}
	if e.observer != nil {
		e.observer(j.agent, j.action)
	}
	return ai.StatusSucceeded
}

func (e *Executor) Cancel(h ai.ActionHandle) {
	e.mu.Lock()
	delete(e.jobs, h)
	e.mu.Unlock()
}

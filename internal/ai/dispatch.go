package ai

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/stealthai/internal/data"
	"github.com/udisondev/stealthai/internal/model"
)

// ActionStatus is the three-state outcome every executor reports.
type ActionStatus uint8

const (
	StatusInProgress ActionStatus = iota
	StatusSucceeded
	StatusFailed
)

func (s ActionStatus) String() string {
	switch s {
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ActionHandle identifies a dispatched action within its executor.
type ActionHandle string

// Dispatcher is an external executor (combat, interaction, hacking).
// Dispatch must not block; the outcome is polled on later ticks. Cancel must
// be idempotent and may be called for handles that already finished.
// Implementations are shared by every agent and must be safe for concurrent use.
type Dispatcher interface {
	Dispatch(agent AgentID, action *model.Action) (ActionHandle, error)
	Poll(h ActionHandle) ActionStatus
	Cancel(h ActionHandle)
}

// PathStatus is the state of a movement request.
type PathStatus uint8

const (
	PathInProgress PathStatus = iota
	PathArrived
	PathBlocked
)

func (s PathStatus) String() string {
	switch s {
	case PathInProgress:
		return "IN_PROGRESS"
	case PathArrived:
		return "ARRIVED"
	case PathBlocked:
		return "BLOCKED"
	default:
		return "UNKNOWN"
	}
}

// PathHandle identifies a movement request.
type PathHandle string

// Movement is the pathfinding and locomotion collaborator.
type Movement interface {
	RequestPath(agent AgentID, target string) (PathHandle, error)
	PathStatus(h PathHandle) PathStatus
	Cancel(h PathHandle)
}

// DefaultMovementRetries is how often a blocked path is re-requested.
const DefaultMovementRetries = 2

// MovementDispatcher adapts Movement to Dispatcher. Arrived maps to success.
// Blocked re-requests the path up to maxRetries times before reporting failure.
type MovementDispatcher struct {
	movement   Movement
	maxRetries int

	mu   sync.Mutex
	jobs map[ActionHandle]*moveJob
}

type moveJob struct {
	agent   AgentID
	target  string
	path    PathHandle
	retries int
}

// NewMovementDispatcher wraps m.
func NewMovementDispatcher(m Movement, maxRetries int) *MovementDispatcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &MovementDispatcher{
		movement:   m,
		maxRetries: maxRetries,
		jobs:       make(map[ActionHandle]*moveJob),
	}
}

// Dispatch requests a path to the action's binding target.
func (d *MovementDispatcher) Dispatch(agent AgentID, action *model.Action) (ActionHandle, error) {
	path, err := d.movement.RequestPath(agent, action.Binding.Target)
	if err != nil {
		return "", fmt.Errorf("%w: %s: requesting path to %q: %w", ErrActionDispatchFailed, action.Name, action.Binding.Target, err)
	}

	h := ActionHandle(path)
	d.mu.Lock()
	d.jobs[h] = &moveJob{agent: agent, target: action.Binding.Target, path: path}
	d.mu.Unlock()
	return h, nil
}

// Poll advances the job and reports its outcome. Finished jobs are
// forgotten after their outcome is reported once.
func (d *MovementDispatcher) Poll(h ActionHandle) ActionStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	job, ok := d.jobs[h]
	if !ok {
		return StatusFailed
	}

	switch d.movement.PathStatus(job.path) {
	case PathInProgress:
		return StatusInProgress
	case PathArrived:
		delete(d.jobs, h)
		return StatusSucceeded
	}

	// Blocked.
	if job.retries >= d.maxRetries {
		delete(d.jobs, h)
		return StatusFailed
	}
	job.retries++
	path, err := d.movement.RequestPath(job.agent, job.target)
	if err != nil {
		slog.Debug("path retry failed", "agent", job.agent, "target", job.target, "error", err)
		delete(d.jobs, h)
		return StatusFailed
	}
	job.path = path
	return StatusInProgress
}

// Cancel abandons the path. Unknown handles are ignored.
func (d *MovementDispatcher) Cancel(h ActionHandle) {
	d.mu.Lock()
	job, ok := d.jobs[h]
	delete(d.jobs, h)
	d.mu.Unlock()

	if ok {
		d.movement.Cancel(job.path)
	}
}

// Executors maps executor kinds to dispatchers.
type Executors map[model.ExecutorKind]Dispatcher

// Validate checks every executor kind used by c has a dispatcher.
func (e Executors) Validate(c *data.Catalog) error {
	for _, k := range c.ExecutorKinds() {
		if e[k] == nil {
			return fmt.Errorf("%w: %s", ErrMissingExecutor, k)
		}
	}
	return nil
}

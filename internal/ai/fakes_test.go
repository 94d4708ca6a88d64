package ai

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/stealthai/internal/data"
	"github.com/udisondev/stealthai/internal/model"
)

var errRejected = errors.New("executor rejected action")

// outcome scripts how fakeDispatcher handles one action name.
type outcome struct {
	polls  int  // polls reporting in-progress before the final status
	fail   bool // final status is failure
	reject bool // Dispatch returns an error
}

// fakeDispatcher is a scripted Dispatcher. Actions without an outcome
// succeed on the first poll.
type fakeDispatcher struct {
	mu         sync.Mutex
	outcomes   map[string]outcome
	jobs       map[ActionHandle]*fakeJob
	dispatched []string
	cancelled  []string
	seq        int
}

type fakeJob struct {
	action string
	left   int
	fail   bool
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{
		outcomes: make(map[string]outcome),
		jobs:     make(map[ActionHandle]*fakeJob),
	}
}

func (d *fakeDispatcher) script(action string, o outcome) *fakeDispatcher {
	d.mu.Lock()
	d.outcomes[action] = o
	d.mu.Unlock()
	return d
}

func (d *fakeDispatcher) Dispatch(agent AgentID, action *model.Action) (ActionHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o := d.outcomes[action.Name]
	if o.reject {
		return "", fmt.Errorf("%w: %s: %w", ErrActionDispatchFailed, action.Name, errRejected)
	}
	d.seq++
	h := ActionHandle(fmt.Sprintf("%d/%s/%d", agent, action.Name, d.seq))
	d.jobs[h] = &fakeJob{action: action.Name, left: o.polls, fail: o.fail}
	d.dispatched = append(d.dispatched, action.Name)
	return h, nil
}

func (d *fakeDispatcher) Poll(h ActionHandle) ActionStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	job, ok := d.jobs[h]
	if !ok {
		return StatusFailed
	}
	if job.left > 0 {
		job.left--
		return StatusInProgress
	}
	delete(d.jobs, h)
	if job.fail {
		return StatusFailed
	}
	return StatusSucceeded
}

func (d *fakeDispatcher) Cancel(h ActionHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if job, ok := d.jobs[h]; ok {
		d.cancelled = append(d.cancelled, job.action)
		delete(d.jobs, h)
	}
}

func (d *fakeDispatcher) Dispatched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dispatched...)
}

func (d *fakeDispatcher) Cancelled() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.cancelled...)
}

// executorsFor maps every executor kind to d.
func executorsFor(d Dispatcher) Executors {
	e := make(Executors)
	for _, k := range model.ExecutorKinds() {
		e[k] = d
	}
	return e
}

// fakeMovement scripts path statuses per target. Each RequestPath consumes
// the next status sequence for its target.
type fakeMovement struct {
	mu        sync.Mutex
	routes    map[string][][]PathStatus
	paths     map[PathHandle][]PathStatus
	requests  int
	cancelled []PathHandle
	err       error
}

func newFakeMovement() *fakeMovement {
	return &fakeMovement{
		routes: make(map[string][][]PathStatus),
		paths:  make(map[PathHandle][]PathStatus),
	}
}

func (m *fakeMovement) route(target string, statuses ...PathStatus) {
	m.mu.Lock()
	m.routes[target] = append(m.routes[target], statuses)
	m.mu.Unlock()
}

func (m *fakeMovement) RequestPath(agent AgentID, target string) (PathHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	m.requests++
	h := PathHandle(fmt.Sprintf("path-%d-%d", agent, m.requests))
	var statuses []PathStatus
	if queued := m.routes[target]; len(queued) > 0 {
		statuses, m.routes[target] = queued[0], queued[1:]
	}
	m.paths[h] = statuses
	return h, nil
}

func (m *fakeMovement) PathStatus(h PathHandle) PathStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := m.paths[h]
	if len(statuses) == 0 {
		return PathArrived
	}
	s := statuses[0]
	if len(statuses) > 1 {
		m.paths[h] = statuses[1:]
	}
	return s
}

func (m *fakeMovement) Cancel(h PathHandle) {
	m.mu.Lock()
	m.cancelled = append(m.cancelled, h)
	m.mu.Unlock()
}

func testCatalog(t testing.TB) *data.Catalog {
	t.Helper()
	c, err := data.LoadDefaultCatalog()
	require.NoError(t, err)
	return c
}

func newTestAgent(t testing.TB, id AgentID, d Dispatcher, tracer Tracer, facts ...model.Fact) *Agent {
	t.Helper()
	a, err := NewAgent(AgentConfig{
		ID:        id,
		Kind:      "guard",
		Catalog:   testCatalog(t),
		Facts:     facts,
		Executors: executorsFor(d),
		Tracer:    tracer,
	})
	require.NoError(t, err)
	a.Start()
	return a
}

func fact(k model.WorldKey, v bool) model.Fact {
	return model.Fact{Key: k, Value: model.Bool(v)}
}

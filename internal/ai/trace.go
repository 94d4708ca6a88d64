package ai

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reason explains why an agent (re)planned.
type Reason uint8

const (
	ReasonNone Reason = iota
	// ReasonGoalChanged - an idle agent picked a goal, or a higher-priority goal preempted
	ReasonGoalChanged
	// ReasonPlanComplete - every step succeeded, redeciding
	ReasonPlanComplete
	// ReasonActionFailed - the executor reported failure
	ReasonActionFailed
	// ReasonWorldChanged - an external write touched the goal or the pending action
	ReasonWorldChanged
	// ReasonNoFeasibleGoal - nothing to do, agent went idle
	ReasonNoFeasibleGoal
)

func (r Reason) String() string {
	switch r {
	case ReasonGoalChanged:
		return "goal_changed"
	case ReasonPlanComplete:
		return "plan_complete"
	case ReasonActionFailed:
		return "action_failed"
	case ReasonWorldChanged:
		return "world_changed"
	case ReasonNoFeasibleGoal:
		return "no_feasible_goal"
	default:
		return "none"
	}
}

// Trace is emitted on every goal change, plan computation and action failure.
type Trace struct {
	Agent      AgentID
	Tick       uint64
	OldGoal    string
	NewGoal    string
	PlanLength int
	Reason     Reason
	Action     string  // failed action, if any
	Expanded   int     // search nodes for the new plan
	Cost       float64 // cost of the new plan
}

// LogValue implements slog.LogValuer.
func (t Trace) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("agent", t.Agent),
		slog.Uint64("tick", t.Tick),
		slog.String("old", t.OldGoal),
		slog.String("new", t.NewGoal),
		slog.Int("len", t.PlanLength),
		slog.String("reason", t.Reason.String()),
	)
}

// Tracer receives trace records. Record is called from agent cycles running
// on different goroutines and must not block.
type Tracer interface {
	Record(t Trace)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(Trace)

func (f TracerFunc) Record(t Trace) { f(t) }

// MultiTracer fans a record out to every tracer.
type MultiTracer []Tracer

func (m MultiTracer) Record(t Trace) {
	for _, tr := range m {
		tr.Record(t)
	}
}

// RingTracer keeps the last N records in memory.
type RingTracer struct {
	mu    sync.Mutex
	buf   []Trace
	next  int
	total int
}

// NewRingTracer returns a tracer holding up to size records.
func NewRingTracer(size int) *RingTracer {
	if size <= 0 {
		size = 1
	}
	return &RingTracer{buf: make([]Trace, size)}
}

func (r *RingTracer) Record(t Trace) {
	r.mu.Lock()
	r.buf[r.next] = t
	r.next = (r.next + 1) % len(r.buf)
	r.total++
	r.mu.Unlock()
}

// Records returns the retained records, oldest first.
func (r *RingTracer) Records() []Trace {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(r.total, len(r.buf))
	out := make([]Trace, 0, n)
	start := (r.next - n + len(r.buf)) % len(r.buf)
	for i := range n {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// Total returns the number of records ever recorded.
func (r *RingTracer) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// TraceWriter persists a batch of trace records.
type TraceWriter interface {
	WriteTraces(ctx context.Context, traces []Trace) error
}

// BatchTracer buffers records and hands them to a TraceWriter in batches
// from its own goroutine. Records arriving while the buffer is full are
// dropped and counted.
type BatchTracer struct {
	writer        TraceWriter
	in            chan Trace
	batchSize     int
	flushInterval time.Duration

	mu      sync.Mutex
	dropped int
}

// NewBatchTracer returns a tracer with a channel buffer of bufferSize.
func NewBatchTracer(w TraceWriter, bufferSize int, flushInterval time.Duration) *BatchTracer {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &BatchTracer{
		writer:        w,
		in:            make(chan Trace, bufferSize),
		batchSize:     bufferSize,
		flushInterval: flushInterval,
	}
}

func (b *BatchTracer) Record(t Trace) {
	select {
	case b.in <- t:
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
	}
}

// Dropped returns the number of records lost to a full buffer.
func (b *BatchTracer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Run flushes batches until ctx is cancelled, then flushes what is left.
func (b *BatchTracer) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	batch := make([]Trace, 0, b.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := b.writer.WriteTraces(ctx, batch); err != nil {
			slog.Error("writing planner traces", "count", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			// Drain without blocking; the writer gets a fresh context.
		drain:
			for {
				select {
				case t := <-b.in:
					batch = append(batch, t)
				default:
					break drain
				}
			}
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			flush(drainCtx)
			cancel()
			return nil

		case t := <-b.in:
			batch = append(batch, t)
			if len(batch) >= b.batchSize {
				flush(ctx)
			}

		case <-ticker.C:
			flush(ctx)
		}
	}
}

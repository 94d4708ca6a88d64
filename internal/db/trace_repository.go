package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/udisondev/stealthai/internal/ai"
)

var traceColumns = []string{
	"agent_id", "tick", "old_goal", "new_goal", "plan_length",
	"reason", "action", "expanded", "cost", "recorded_at",
}

// TraceRepository persists planner trace records into planner_traces.
// It implements ai.TraceWriter.
type TraceRepository struct {
	q   Querier
	now func() time.Time
}

// NewTraceRepository creates a trace repository.
func NewTraceRepository(q Querier) *TraceRepository {
	return &TraceRepository{q: q, now: time.Now}
}

// WriteTraces bulk-inserts traces with COPY.
func (r *TraceRepository) WriteTraces(ctx context.Context, traces []ai.Trace) error {
	if len(traces) == 0 {
		return nil
	}

	recordedAt := r.now().UTC()
	rows := make([][]any, len(traces))
	for i, t := range traces {
		rows[i] = []any{
			int64(t.Agent), int64(t.Tick), t.OldGoal, t.NewGoal, int32(t.PlanLength),
			t.Reason.String(), t.Action, int32(t.Expanded), t.Cost, recordedAt,
		}
	}

	n, err := r.q.CopyFrom(ctx, pgx.Identifier{"planner_traces"}, traceColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copying %d planner traces: %w", len(traces), err)
	}
	if int(n) != len(traces) {
		return fmt.Errorf("copying planner traces: expected %d rows, got %d", len(traces), n)
	}

	slog.Debug("saved planner traces", "count", n)
	return nil
}

// CountByReason returns the number of stored traces per reason for agent.
func (r *TraceRepository) CountByReason(ctx context.Context, agent ai.AgentID) (map[string]int64, error) {
	rows, err := r.q.Query(ctx,
		`SELECT reason, count(*) FROM planner_traces WHERE agent_id = $1 GROUP BY reason`,
		int64(agent),
	)
	if err != nil {
		return nil, fmt.Errorf("querying traces of agent %d: %w", agent, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			reason string
			n      int64
		)
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("scanning trace count: %w", err)
		}
		counts[reason] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trace counts: %w", err)
	}
	return counts, nil
}

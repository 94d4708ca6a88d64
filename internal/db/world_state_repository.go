package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/model"
)

// WorldStateRepository stores per-agent WorldState snapshots for the save
// system. Only facts are stored; goals and plans are recomputed on restore.
type WorldStateRepository struct {
	q Querier
}

// NewWorldStateRepository creates a world state repository.
func NewWorldStateRepository(q Querier) *WorldStateRepository {
	return &WorldStateRepository{q: q}
}

// Save upserts the snapshot of agent taken at tick.
func (r *WorldStateRepository) Save(ctx context.Context, agent ai.AgentID, kind string, tick uint64, state model.WorldState) error {
	facts, err := json.Marshal(state.Map())
	if err != nil {
		return fmt.Errorf("encoding world state of agent %d: %w", agent, err)
	}

	_, err = r.q.Exec(ctx,
		`INSERT INTO agent_world_state (agent_id, kind, facts, tick, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (agent_id) DO UPDATE SET
		     kind = EXCLUDED.kind,
		     facts = EXCLUDED.facts,
		     tick = EXCLUDED.tick,
		     updated_at = EXCLUDED.updated_at`,
		int64(agent), kind, facts, int64(tick),
	)
	if err != nil {
		return fmt.Errorf("saving world state of agent %d: %w", agent, err)
	}
	return nil
}

// Load returns the stored snapshot of agent. ok is false if none exists.
func (r *WorldStateRepository) Load(ctx context.Context, agent ai.AgentID) (state model.WorldState, ok bool, err error) {
	var raw []byte
	err = r.q.QueryRow(ctx,
		`SELECT facts FROM agent_world_state WHERE agent_id = $1`,
		int64(agent),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.WorldState{}, false, nil
		}
		return model.WorldState{}, false, fmt.Errorf("loading world state of agent %d: %w", agent, err)
	}

	var facts map[string]int32
	if err := json.Unmarshal(raw, &facts); err != nil {
		return model.WorldState{}, false, fmt.Errorf("decoding world state of agent %d: %w", agent, err)
	}
	state, err = model.WorldStateFromMap(facts)
	if err != nil {
		return model.WorldState{}, false, fmt.Errorf("agent %d: %w", agent, err)
	}
	return state, true, nil
}

package ai

import "github.com/udisondev/stealthai/internal/model"

// AgentID identifies a planner-controlled agent.
type AgentID uint32

// Controller represents a decision cycle driven by TickManager
type Controller interface {
	// ID returns the agent this controller drives
	ID() AgentID

	// Start starts the controller
	Start()

	// Stop stops the controller and abandons in-flight work
	Stop()

	// State returns the plan executor state
	State() model.PlanState

	// Tick runs one decision cycle. Never called concurrently for the same controller.
	Tick(tick uint64)
}

package model

// PlanState is the state of an agent's plan executor.
type PlanState int32

const (
	// PlanStateIdle - no goal selected (or none feasible)
	PlanStateIdle PlanState = iota
	// PlanStatePlanning - goal selection and plan search in progress
	PlanStatePlanning
	// PlanStateExecuting - current step dispatched to an external executor
	PlanStateExecuting
	// PlanStateActionSucceeded - transient, step reported success
	PlanStateActionSucceeded
	// PlanStateActionFailed - transient, step reported failure
	PlanStateActionFailed
	// PlanStatePlanComplete - every step succeeded
	PlanStatePlanComplete
	// PlanStateReplanning - plan discarded, new search pending
	PlanStateReplanning
)

// String returns human-readable state name
func (s PlanState) String() string {
	switch s {
	case PlanStateIdle:
		return "IDLE"
	case PlanStatePlanning:
		return "PLANNING"
	case PlanStateExecuting:
		return "EXECUTING"
	case PlanStateActionSucceeded:
		return "ACTION_SUCCEEDED"
	case PlanStateActionFailed:
		return "ACTION_FAILED"
	case PlanStatePlanComplete:
		return "PLAN_COMPLETE"
	case PlanStateReplanning:
		return "REPLANNING"
	default:
		return "UNKNOWN"
	}
}

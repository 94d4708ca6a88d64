package ai

import "errors"

var (
	// ErrUndefinedKey is returned when a store key is read before it was initialized.
	ErrUndefinedKey = errors.New("undefined world key")

	// ErrActionDispatchFailed is returned when an executor rejects a dispatch.
	ErrActionDispatchFailed = errors.New("action dispatch failed")

	// ErrMissingExecutor is returned when an action's executor kind has no
	// registered dispatcher.
	ErrMissingExecutor = errors.New("missing executor")

	// ErrAgentNotFound is returned by lookups for an unregistered agent.
	ErrAgentNotFound = errors.New("agent not found")
)

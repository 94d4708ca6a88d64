package ai

import "sync/atomic"

// verboseCycles holds the debug switch for the decision cycle. Agents,
// selectors and bridges read it before assembling plan or fact attributes.
var verboseCycles atomic.Bool

// EnableDebugLogging sets the decision-cycle debug switch. simserver flips it
// once the configured log level is parsed.
func EnableDebugLogging(enabled bool) {
	verboseCycles.Store(enabled)
}

// IsDebugEnabled guards replan, interrupt and dispatch-rejection debug lines.
func IsDebugEnabled() bool {
	return verboseCycles.Load()
}

package morale

import (
	"fmt"
	"math"
)

// Cause identifies a morale-reducing event.
type Cause uint8

const (
	// CauseDirectHit - the agent itself was hit
	CauseDirectHit Cause = iota
	// CauseWitness - an ally nearby was hit
	CauseWitness
	// CauseGunshot - a gunshot was heard
	CauseGunshot
	// CausePanicSpread - a panicking agent nearby
	CausePanicSpread
)

func (c Cause) String() string {
	switch c {
	case CauseDirectHit:
		return "direct_hit"
	case CauseWitness:
		return "witness"
	case CauseGunshot:
		return "gunshot"
	case CausePanicSpread:
		return "panic_spread"
	default:
		return "unknown"
	}
}

// Crossing is the result of a morale change.
type Crossing int8

const (
	// NoCrossing - panic state unchanged
	NoCrossing Crossing = iota
	// Panicked - morale dropped to or below the panic threshold
	Panicked
	// Recovered - morale rose to or above the recover threshold
	Recovered
)

func (c Crossing) String() string {
	switch c {
	case Panicked:
		return "panicked"
	case Recovered:
		return "recovered"
	default:
		return "none"
	}
}

// Config holds morale tuning.
type Config struct {
	Max              float64
	PanicThreshold   float64
	RecoverThreshold float64 // must be above PanicThreshold
	DirectHit        float64
	Witness          float64
	Gunshot          float64
	PanicSpread      float64
	RecoveryPerTick  float64
}

// DefaultConfig returns the stock tuning: 100 morale, panic at 30, calm
// again at 50.
func DefaultConfig() Config {
	return Config{
		Max:              100,
		PanicThreshold:   30,
		RecoverThreshold: 50,
		DirectHit:        20,
		Witness:          5,
		Gunshot:          15,
		PanicSpread:      30,
		RecoveryPerTick:  5,
	}
}

// Validate checks thresholds are ordered and amounts are non-negative.
func (c Config) Validate() error {
	if !(c.Max > 0) {
		return fmt.Errorf("morale: max must be positive, got %v", c.Max)
	}
	if c.PanicThreshold < 0 || c.PanicThreshold >= c.RecoverThreshold || c.RecoverThreshold > c.Max {
		return fmt.Errorf("morale: want 0 <= panic_threshold (%v) < recover_threshold (%v) <= max (%v)",
			c.PanicThreshold, c.RecoverThreshold, c.Max)
	}
	for _, v := range []float64{c.DirectHit, c.Witness, c.Gunshot, c.PanicSpread, c.RecoveryPerTick} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("morale: amounts must be non-negative")
		}
	}
	return nil
}

// Amount returns the morale loss for cause.
func (c Config) Amount(cause Cause) float64 {
	switch cause {
	case CauseDirectHit:
		return c.DirectHit
	case CauseWitness:
		return c.Witness
	case CauseGunshot:
		return c.Gunshot
	case CausePanicSpread:
		return c.PanicSpread
	default:
		return 0
	}
}

// Tracker is the morale of one agent. Not safe for concurrent use.
type Tracker struct {
	cfg      Config
	current  float64
	panicked bool
}

// NewTracker returns a tracker at full morale.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, current: cfg.Max}
}

// Current returns the morale value.
func (t *Tracker) Current() float64 { return t.current }

// Panicked reports whether the agent is in panic.
func (t *Tracker) Panicked() bool { return t.panicked }

// Hit applies the loss configured for cause.
func (t *Tracker) Hit(cause Cause) Crossing {
	return t.Reduce(t.cfg.Amount(cause))
}

// Reduce lowers morale by amount, never below zero.
func (t *Tracker) Reduce(amount float64) Crossing {
	t.current = math.Max(t.current-amount, 0)
	if !t.panicked && t.current <= t.cfg.PanicThreshold {
		t.panicked = true
		return Panicked
	}
	return NoCrossing
}

// Recover applies one tick of recovery.
func (t *Tracker) Recover() Crossing {
	if t.current >= t.cfg.Max {
		return NoCrossing
	}
	t.current = math.Min(t.current+t.cfg.RecoveryPerTick, t.cfg.Max)
	if t.panicked && t.current >= t.cfg.RecoverThreshold {
		t.panicked = false
		return Recovered
	}
	return NoCrossing
}

// SetPanicked aligns the tracker with a panic state written by someone else,
// such as a restored save. Panic lowers morale to the panic threshold, calm
// raises it to the recover threshold. No crossing is reported.
func (t *Tracker) SetPanicked(panicked bool) {
	t.panicked = panicked
	if panicked {
		t.current = math.Min(t.current, t.cfg.PanicThreshold)
	} else {
		t.current = math.Max(t.current, t.cfg.RecoverThreshold)
	}
}

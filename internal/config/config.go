package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/data"
	"github.com/udisondev/stealthai/internal/game/morale"
	"github.com/udisondev/stealthai/internal/game/planner"
)

// DefaultPath is the config file used when STEALTHAI_CONFIG is not set.
const DefaultPath = "config/simserver.yaml"

// PathEnv overrides the config path.
const PathEnv = "STEALTHAI_CONFIG"

// Sim holds all configuration for the simulation server.
type Sim struct {
	LogLevel     string        `yaml:"log_level"`
	TickInterval time.Duration `yaml:"tick_interval"`
	Workers      int           `yaml:"workers"` // parallel agent cycles, <= 1 runs in ID order

	// Catalog file, empty uses the embedded default catalog
	CatalogPath    string             `yaml:"catalog_path"`
	ActionCosts    map[string]float64 `yaml:"action_costs"`
	GoalPriorities map[string]float64 `yaml:"goal_priorities"`

	// Behavior profile per agent kind
	Profiles map[string]data.Profile `yaml:"profiles"`

	Planner  PlannerConfig  `yaml:"planner"`
	Executor ExecutorConfig `yaml:"executor"`
	Morale   MoraleConfig   `yaml:"morale"`
	Traces   TraceConfig    `yaml:"traces"`
	Scenario ScenarioConfig `yaml:"scenario"`

	Database DatabaseConfig `yaml:"database"`
}

// PlannerConfig bounds every plan search.
type PlannerConfig struct {
	MaxExpandedNodes int `yaml:"max_expanded_nodes"`
	MaxPlanLength    int `yaml:"max_plan_length"`
}

// Limits converts to planner limits.
func (p PlannerConfig) Limits() planner.Limits {
	return planner.Limits{MaxExpanded: p.MaxExpandedNodes, MaxPlanLength: p.MaxPlanLength}
}

// ExecutorConfig controls failure handling in the plan executor.
type ExecutorConfig struct {
	MaxDispatchFailures     int    `yaml:"max_dispatch_failures"`
	InfeasibleCooldownTicks uint64 `yaml:"infeasible_cooldown_ticks"`
	MovementBlockedRetries  int    `yaml:"movement_blocked_retries"`
	PreemptIntervalTicks    uint64 `yaml:"preempt_interval_ticks"` // outranking-goal check on quiet ticks
}

// MoraleConfig mirrors morale.Config.
type MoraleConfig struct {
	Max              float64 `yaml:"max"`
	PanicThreshold   float64 `yaml:"panic_threshold"`
	RecoverThreshold float64 `yaml:"recover_threshold"`
	DirectHit        float64 `yaml:"direct_hit"`
	Witness          float64 `yaml:"witness"`
	Gunshot          float64 `yaml:"gunshot"`
	PanicSpread      float64 `yaml:"panic_spread"`
	RecoveryPerTick  float64 `yaml:"recovery_per_tick"`
}

// Tracker converts to a morale.Config.
func (m MoraleConfig) Tracker() morale.Config {
	return morale.Config{
		Max:              m.Max,
		PanicThreshold:   m.PanicThreshold,
		RecoverThreshold: m.RecoverThreshold,
		DirectHit:        m.DirectHit,
		Witness:          m.Witness,
		Gunshot:          m.Gunshot,
		PanicSpread:      m.PanicSpread,
		RecoveryPerTick:  m.RecoveryPerTick,
	}
}

// TraceConfig controls planner trace records.
type TraceConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BufferSize    int           `yaml:"buffer_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Persist       bool          `yaml:"persist"` // write to planner_traces, needs the database
}

// ScenarioConfig drives the scripted scenario of the simulation server.
type ScenarioConfig struct {
	Guards       int    `yaml:"guards"`
	Civilians    int    `yaml:"civilians"`
	Seed         uint64 `yaml:"seed"`
	GunshotEvery uint64 `yaml:"gunshot_every"` // ticks between gunshots, 0 disables
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultSim returns Sim config with sensible defaults.
func DefaultSim() Sim {
	m := morale.DefaultConfig()
	return Sim{
		LogLevel:     "info",
		TickInterval: 100 * time.Millisecond,
		Workers:      1,
		Planner: PlannerConfig{
			MaxExpandedNodes: planner.DefaultMaxExpanded,
			MaxPlanLength:    planner.DefaultMaxPlanLength,
		},
		Executor: ExecutorConfig{
			MaxDispatchFailures:     ai.DefaultMaxDispatchFailures,
			InfeasibleCooldownTicks: ai.DefaultCooldownTicks,
			MovementBlockedRetries:  ai.DefaultMovementRetries,
			PreemptIntervalTicks:    ai.DefaultPreemptIntervalTicks,
		},
		Morale: MoraleConfig{
			Max:              m.Max,
			PanicThreshold:   m.PanicThreshold,
			RecoverThreshold: m.RecoverThreshold,
			DirectHit:        m.DirectHit,
			Witness:          m.Witness,
			Gunshot:          m.Gunshot,
			PanicSpread:      m.PanicSpread,
			RecoveryPerTick:  m.RecoveryPerTick,
		},
		Traces: TraceConfig{
			Enabled:       true,
			BufferSize:    1024,
			FlushInterval: time.Second,
		},
		Scenario: ScenarioConfig{
			Guards:       4,
			Civilians:    8,
			Seed:         1,
			GunshotEvery: 50,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "stealthai",
			Password: "stealthai",
			DBName:   "stealthai",
			SSLMode:  "disable",
		},
	}
}

// Path returns the config path from STEALTHAI_CONFIG, or DefaultPath.
func Path() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// LoadSim loads simulation config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadSim(path string) (Sim, error) {
	cfg := DefaultSim()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (s Sim) Validate() error {
	if s.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", s.TickInterval)
	}
	if s.Planner.MaxExpandedNodes < 0 || s.Planner.MaxPlanLength < 0 {
		return fmt.Errorf("planner limits must not be negative")
	}
	if err := s.Morale.Tracker().Validate(); err != nil {
		return err
	}
	for kind, p := range s.Profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", kind, err)
		}
	}
	if s.Traces.Persist && !s.Database.Enabled {
		return fmt.Errorf("traces.persist requires database.enabled")
	}
	return nil
}

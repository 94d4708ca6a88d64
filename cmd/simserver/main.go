package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/stealthai/internal/ai"
	"github.com/udisondev/stealthai/internal/config"
	"github.com/udisondev/stealthai/internal/data"
	"github.com/udisondev/stealthai/internal/db"
	"github.com/udisondev/stealthai/internal/sim"
)

// recentTraces is how many planner traces are kept in memory for the
// shutdown summary.
const recentTraces = 256

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config first to determine log level
	cfg, err := config.LoadSim(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("stealthai simulation starting",
		"log_level", cfg.LogLevel,
		"tick_interval", cfg.TickInterval,
		"workers", cfg.Workers)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	slog.Info("catalog loaded", "goals", len(catalog.Goals()), "actions", len(catalog.Actions()))

	var (
		traceWriter ai.TraceWriter
		states      *db.WorldStateRepository
	)
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		states = db.NewWorldStateRepository(database.Pool())
		if cfg.Traces.Persist {
			traceWriter = db.NewTraceRepository(database.Pool())
		}
	}

	ring := ai.NewRingTracer(recentTraces)
	tracer, batch := newTracer(cfg.Traces, ring, traceWriter)

	var store sim.StateStore
	if states != nil {
		store = states
	}
	world, err := sim.NewWorld(ctx, cfg, catalog, tracer, store)
	if err != nil {
		return fmt.Errorf("creating world: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting tick manager", "interval", cfg.TickInterval)
		if err := world.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("tick manager: %w", err)
		}
		return nil
	})

	if batch != nil {
		g.Go(func() error {
			slog.Info("starting trace writer", "flush_interval", cfg.Traces.FlushInterval)
			return batch.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	tick := world.Manager.CurrentTick()
	if states != nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := world.Spawner.SaveAll(saveCtx, states, tick); err != nil {
			slog.Error("saving agent world states", "err", err)
		} else {
			slog.Info("agent world states saved", "agents", world.Spawner.Count(), "tick", tick)
		}
	}

	logSummary(tick, ring, batch)
	return nil
}

// loadCatalog reads the configured catalog and applies cost and priority
// overrides.
func loadCatalog(cfg config.Sim) (*data.Catalog, error) {
	catalog, err := data.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	catalog, err = catalog.WithOverrides(cfg.ActionCosts, cfg.GoalPriorities)
	if err != nil {
		return nil, fmt.Errorf("applying catalog overrides: %w", err)
	}
	return catalog, nil
}

// newTracer builds the tracer agents record to. The returned BatchTracer is
// nil unless traces are persisted and must be run by the caller.
func newTracer(cfg config.TraceConfig, ring *ai.RingTracer, w ai.TraceWriter) (ai.Tracer, *ai.BatchTracer) {
	if !cfg.Enabled {
		return nil, nil
	}
	if w == nil {
		return ring, nil
	}
	batch := ai.NewBatchTracer(w, cfg.BufferSize, cfg.FlushInterval)
	return ai.MultiTracer{ring, batch}, batch
}

func logSummary(tick uint64, ring *ai.RingTracer, batch *ai.BatchTracer) {
	reasons := make(map[string]int)
	for _, t := range ring.Records() {
		reasons[t.Reason.String()]++
	}
	attrs := []any{"tick", tick, "traces", ring.Total()}
	for r, n := range reasons {
		attrs = append(attrs, "recent."+r, n)
	}
	if batch != nil {
		attrs = append(attrs, "dropped", batch.Dropped())
	}
	slog.Info("simulation stopped", attrs...)
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

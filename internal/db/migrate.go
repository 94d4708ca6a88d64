package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/udisondev/stealthai/internal/db/migrations"
)

// RunMigrations brings the planner_traces and agent_world_state tables up to
// the newest embedded schema version.
func RunMigrations(ctx context.Context, dsn string) error {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening schema connection: %w", err)
	}
	defer conn.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, conn, migrations.FS)
	if err != nil {
		return fmt.Errorf("loading schema migrations: %w", err)
	}
	applied, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying schema migrations: %w", err)
	}
	for _, res := range applied {
		slog.Info("schema migration applied",
			"version", res.Source.Version,
			"duration", res.Duration)
	}
	return nil
}

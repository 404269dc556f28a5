package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MigrationCommands are the goose commands cmd/migrate accepts. up-to and
// down-to take a target version argument.
var MigrationCommands = []string{"up", "up-by-one", "up-to", "down", "down-to", "redo", "reset", "status", "version"}

// MigrationFiles lists the embedded schema migrations in apply order.
func MigrationFiles() ([]string, error) {
	files, err := fs.Glob(embedMigrations, migrationsDir+"/*.sql")
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// RunMigrations applies a goose command to the economy schema at dsn.
func RunMigrations(ctx context.Context, dsn, command string, args ...string) error {
	if !slices.Contains(MigrationCommands, command) {
		return fmt.Errorf("unknown migration command %q", command)
	}

	migrationCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("sql open: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(migrationCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	slog.Info("running migrations", "command", command, "args", args)

	if err := goose.RunContext(migrationCtx, command, db, migrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// dialectMap maps database drivers to Goose dialect names
var dialectMap = map[string]string{
	"sqlite": "sqlite3",
	"pgx":    "postgres",
}

func dialect(driver string) string {
	d, ok := dialectMap[driver]
	if ok {
		return d
	}
	return driver
}

func setupGoose(driver string) error {
	err := goose.SetDialect(dialect(driver))
	if err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations directory: %w", err)
	}

	goose.SetBaseFS(migrationsDir)
	goose.SetLogger(goose.NopLogger())
	return nil
}

// RunMigrations applies all pending migrations.
func RunMigrations(ctx context.Context, db *sql.DB, driver string) error {
	err := setupGoose(driver)
	if err != nil {
		return err
	}

	err = goose.UpContext(ctx, db, ".")
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err == nil {
		slog.Info("migrations completed", "version", version)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sql.DB, driver string) error {
	err := setupGoose(driver)
	if err != nil {
		return err
	}

	err = goose.DownContext(ctx, db, ".")
	if err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	slog.Info("rolled back one migration")
	return nil
}

// MigrationVersion returns the applied schema version and the newest embedded one.
func MigrationVersion(ctx context.Context, db *sql.DB, driver string) (current, latest int64, err error) {
	err = setupGoose(driver)
	if err != nil {
		return 0, 0, err
	}

	current, err = goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get database version: %w", err)
	}

	migrations, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to collect migrations: %w", err)
	}
	last, err := migrations.Last()
	if err != nil {
		return current, 0, nil
	}
	return current, last.Version, nil
}

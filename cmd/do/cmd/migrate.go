package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teamx/teamfinder/internal/config"
	"github.com/teamx/teamfinder/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(
		migrateStepCmd("up", "Apply all pending migrations", db.RunMigrations),
		migrateStepCmd("down", "Roll back the most recent migration", db.MigrateDown),
		migrateStatusCmd(),
	)
	return cmd
}

func migrateStepCmd(use, short string, step func(context.Context, *sql.DB, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, driver string, database *sql.DB) error {
				err := step(ctx, database, driver)
				if err != nil {
					return err
				}
				return printVersion(ctx, driver, database)
			})
		},
	}
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and latest schema versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), printVersion)
		},
	}
}

func printVersion(ctx context.Context, driver string, database *sql.DB) error {
	current, latest, err := db.MigrationVersion(ctx, database, driver)
	if err != nil {
		return err
	}

	fmt.Printf("driver:  %s\ncurrent: %d\nlatest:  %d\n", driver, current, latest)
	if current < latest {
		fmt.Printf("pending: %d\n", latest-current)
	}
	return nil
}

// withDB opens the configured database without starting the app.
func withDB(ctx context.Context, fn func(ctx context.Context, driver string, database *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	return fn(ctx, cfg.DBDriver, database.DB)
}

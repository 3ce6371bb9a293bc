// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/teamx/teamfinder/internal/db"
)

// Open returns a migrated SQLite database in t's temp dir, closed on cleanup.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "teamx.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init(context.Background(), "sqlite", path)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	err = db.RunMigrations(context.Background(), database.DB, "sqlite")
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return database
}

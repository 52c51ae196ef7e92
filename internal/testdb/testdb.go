// Package testdb opens migrated, isolated SQLite databases for tests.
package testdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/askbox-backend/pkg/config"
	"github.com/angelmondragon/askbox-backend/pkg/db"
	"github.com/angelmondragon/askbox-backend/pkg/migrate"
	"github.com/google/uuid"
)

// New returns a db.Client over a private in-memory SQLite database with every
// migration applied. The pool is pinned to one connection so SQLite's
// single-writer lock serializes concurrent transactions instead of failing them.
func New(t testing.TB) *db.Client {
	t.Helper()

	cfg := config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	ctx := context.Background()
	client, err := db.New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if _, err := migrate.Apply(ctx, sqlDB, config.DriverSQLite); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return client
}

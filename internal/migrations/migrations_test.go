package migrations_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/playperu/geodrive/internal/database"
	"github.com/playperu/geodrive/internal/migrations"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.MemoryPath)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
	).Scan(&name)
	return err == nil
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		name string
		run  func(*sql.DB) error
		want string
		not  string
	}{
		{"server", migrations.RunServer, "scores", "kv"},
		{"local", migrations.RunLocal, "kv", "scores"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openMemory(t)
			if err := tt.run(db); err != nil {
				t.Fatalf("running migrations: %v", err)
			}
			if !tableExists(t, db, tt.want) {
				t.Errorf("table %q not found", tt.want)
			}
			if tableExists(t, db, tt.not) {
				t.Errorf("table %q should not exist", tt.not)
			}
		})
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openMemory(t)

	if err := migrations.RunServer(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.RunServer(db); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}

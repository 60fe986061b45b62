// Package migrations holds the embedded goose schemas for both databases.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed server/*.sql local/*.sql
var fs embed.FS

// goose keeps its base FS and dialect in package state.
var mu sync.Mutex

// RunServer applies the score server schema.
func RunServer(db *sql.DB) error { return run(db, "server") }

// RunLocal applies the drive client's key-value schema.
func RunLocal(db *sql.DB) error { return run(db, "local") }

func run(db *sql.DB, dir string) error {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(fs)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("running %s migrations: %w", dir, err)
	}
	return nil
}

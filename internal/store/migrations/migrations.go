// Package migrations embeds the SQL schema and applies it with goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedded embed.FS

// QuietMode suppresses goose's per-migration output
var QuietMode = false

// Run applies all pending migrations to the database
func Run(db *sql.DB) error {
	goose.SetBaseFS(embedded)

	if QuietMode {
		goose.SetLogger(goose.NopLogger())
	}

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Package migrations embeds the document-store schema for each supported
// SQL dialect and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// goose keeps its base FS and dialect in package state.
var mu sync.Mutex

// Up applies every pending migration for the dialect.
func Up(ctx context.Context, db *sql.DB, d dbx.Dialect) error {
	mu.Lock()
	defer mu.Unlock()

	var dir, gooseDialect string
	switch d {
	case dbx.Postgres:
		dir, gooseDialect = "postgres", "pgx"
	case dbx.SQLite:
		dir, gooseDialect = "sqlite", "sqlite3"
	default:
		return fmt.Errorf("no migrations for dialect %q", d)
	}

	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate %s: %w", d, err)
	}
	return nil
}

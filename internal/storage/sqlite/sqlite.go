// Package sqlite opens a SQLite-backed student store.
//
// SQLite keeps everything in a single file on disk: no network, no separate
// server process. It backs local runs (DB_DRIVER=sqlite) and the end-to-end
// tests, and speaks the same SQL as Postgres through sqlstore.
//
// The blank import registers the "sqlite3" driver with database/sql.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage/sqlstore"
)

// DriverName is the database/sql name go-sqlite3 registers.
const DriverName = "sqlite3"

// CREATE TABLE IF NOT EXISTS is idempotent, safe to run on every startup.
const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		name  TEXT    NOT NULL,
		email TEXT    NOT NULL,
		age   INTEGER NOT NULL,
		phone TEXT    NOT NULL
	)
`

// New opens the database at cfg.StoragePath, creates the students table if
// needed and returns a ready-to-use store.
func New(ctx context.Context, cfg config.Database, log *slog.Logger) (*sqlstore.Store, error) {
	db, err := sqlx.ConnectContext(ctx, DriverName, cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return sqlstore.New(db, cfg.StoragePath, cfg.QueryTimeout, log), nil
}

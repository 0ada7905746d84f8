// Package postgres opens the production student store: a lib/pq
// connection pool wrapped by sqlstore.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage/sqlstore"
)

// DriverName is the database/sql name lib/pq registers.
const DriverName = "postgres"

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id    SERIAL  PRIMARY KEY,
		name  TEXT    NOT NULL,
		email TEXT    NOT NULL,
		age   INTEGER NOT NULL,
		phone TEXT    NOT NULL CHECK (phone ~ '^[0-9]{10}$')
	)
`

// New connects to Postgres, sizes the pool and makes sure the students
// table exists.
func New(ctx context.Context, cfg config.Database, log *slog.Logger) (*sqlstore.Store, error) {
	dsn := cfg.DSN()

	db, err := sqlx.ConnectContext(ctx, DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.New: create table: %w", err)
	}

	return sqlstore.New(db, dsn, cfg.QueryTimeout, log), nil
}

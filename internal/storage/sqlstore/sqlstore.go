// Package sqlstore implements storage.Storage on top of a sqlx connection
// pool. The SQL is written once with "?" placeholders and rebound to the
// driver's bindvar style ($1 for Postgres, ? for SQLite) by sqlx.
//
// Concurrency: *sqlx.DB is a pool. Reads borrow a connection for the
// duration of one statement; writes borrow one for the lifetime of a
// transaction and always give it back through Commit or Rollback.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

const (
	insertStudent = `INSERT INTO students (name, email, age, phone) VALUES (?, ?, ?, ?) RETURNING id`
	selectAll     = `SELECT id, name, email, age, phone FROM students ORDER BY id`
	selectByID    = `SELECT id, name, email, age, phone FROM students WHERE id = ?`
	deleteByID    = `DELETE FROM students WHERE id = ?`
	pingQuery     = `SELECT 1`
)

// Store is the SQL-backed Persistence Gateway.
type Store struct {
	DB *sqlx.DB

	dsn     string
	timeout time.Duration
	log     *slog.Logger
}

var _ storage.Storage = (*Store)(nil)

// New wraps an open pool. dsn is kept so Ping can dial a connection of
// its own; timeout bounds each call (zero means no extra bound).
func New(db *sqlx.DB, dsn string, timeout time.Duration, log *slog.Logger) *Store {
	return &Store{
		DB:      db,
		dsn:     dsn,
		timeout: timeout,
		log:     log.With(slog.String("component", "storage"), slog.String("driver", db.DriverName())),
	}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// fail logs the driver error and hides it behind storage.ErrStorage.
func (s *Store) fail(op string, err error) error {
	s.log.Error("storage operation failed",
		slog.String("op", op),
		slog.String("error", err.Error()))
	return fmt.Errorf("%w: %s: %w", storage.ErrStorage, op, err)
}

// inTx runs fn inside a transaction. Logical errors (storage.ErrNotFound)
// roll back and are returned untouched; everything else rolls back and is
// wrapped by fail.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return s.fail(op, fmt.Errorf("begin: %w", err))
	}
	// No-op after a successful Commit.
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return s.fail(op, err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// CreateStudent inserts one row and returns its generated id.
// Values are bound parameters, never concatenated into the SQL text.
func (s *Store) CreateStudent(ctx context.Context, student types.Student) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var id int64
	err := s.inTx(ctx, "CreateStudent", func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, tx.Rebind(insertStudent),
			student.Name, student.Email, student.Age, student.Phone,
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetStudents returns all rows. An empty table yields an empty slice.
func (s *Store) GetStudents(ctx context.Context) ([]types.Student, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	students := make([]types.Student, 0)
	if err := s.DB.SelectContext(ctx, &students, selectAll); err != nil {
		return nil, s.fail("GetStudents", err)
	}
	return students, nil
}

// GetStudentByID fetches exactly one row by primary key.
func (s *Store) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var student types.Student
	err := s.DB.GetContext(ctx, &student, s.DB.Rebind(selectByID), id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, s.fail("GetStudentByID", err)
	}
	return student, nil
}

// UpdateStudentByID builds "UPDATE students SET a = ?, b = ? WHERE id = ?"
// from the fields present in patch. Column names come from a fixed set in
// types.StudentPatch.Fields; values and id are bound parameters.
func (s *Store) UpdateStudentByID(ctx context.Context, id int64, patch types.StudentPatch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		s.log.Warn("no fields provided for update", slog.Int64("id", id))
		return storage.ErrNoFieldsProvided
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		sets = append(sets, f.Column+" = ?")
		args = append(args, f.Value)
	}
	args = append(args, id)
	query := "UPDATE students SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.inTx(ctx, "UpdateStudentByID", func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, tx.Rebind(query), args...)
	})
}

// DeleteStudentByID removes one row; it commits only when a row was hit.
func (s *Store) DeleteStudentByID(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.inTx(ctx, "DeleteStudentByID", func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, tx.Rebind(deleteByID), id)
	})
}

// execAffecting runs a statement and maps "zero rows affected" to
// storage.ErrNotFound.
func execAffecting(ctx context.Context, tx *sqlx.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Ping dials a brand-new connection outside the pool, runs SELECT 1 and
// closes it again, so a wedged pool cannot mask a healthy database or the
// other way round.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	db, err := sqlx.Open(s.DB.DriverName(), s.dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	var one int
	if err := db.QueryRowxContext(ctx, pingQuery).Scan(&one); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

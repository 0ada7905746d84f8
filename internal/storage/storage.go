// Package storage defines the Storage interface, the contract that any
// database backend must satisfy to work with this application, together
// with the errors the backends report.
//
// Handlers depend only on this interface, so tests can pass a fake and
// main can pick Postgres or SQLite without any handler changes.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-records-api/internal/types"
)

// Logical failures a backend reports instead of raw driver errors.
var (
	// ErrNotFound means no row matches the given id.
	ErrNotFound = errors.New("student not found")

	// ErrNoFieldsProvided means a partial update carried nothing to change.
	ErrNoFieldsProvided = errors.New("please provide at least one field to update")

	// ErrStorage wraps every driver-level failure (constraint violation,
	// lost connection, timeout). Its own text is the only part that may be
	// shown to clients.
	ErrStorage = errors.New("an unexpected error occurred, please contact support")
)

// ClientMessage returns the client-safe message for a logical failure and
// true, or "" and false when err is not one of the errors above.
func ClientMessage(err error) (string, bool) {
	for _, known := range []error{ErrNotFound, ErrNoFieldsProvided, ErrStorage} {
		if errors.Is(err, known) {
			return known.Error(), true
		}
	}
	return "", false
}

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts a new student record and returns the
	// store-generated primary-key ID.
	CreateStudent(ctx context.Context, student types.Student) (int64, error)

	// GetStudentByID fetches a single student by primary key.
	// Returns ErrNotFound if there is none.
	GetStudentByID(ctx context.Context, id int64) (types.Student, error)

	// GetStudents returns every student in the database.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentByID changes only the fields present in patch.
	// Returns ErrNoFieldsProvided or ErrNotFound on logical failure.
	UpdateStudentByID(ctx context.Context, id int64, patch types.StudentPatch) error

	// DeleteStudentByID removes a student record permanently.
	// Returns ErrNotFound if nothing was deleted.
	DeleteStudentByID(ctx context.Context, id int64) error

	// Ping opens a fresh connection and runs a trivial query.
	Ping(ctx context.Context) error

	// Close releases the connection pool.
	Close() error
}

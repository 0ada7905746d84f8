package sqlstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records-api/internal/logger"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/storage/sqlstore"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// newMockStore returns a store that speaks Postgres bindvars ($1, $2...)
// against sqlmock with exact query matching.
func newMockStore(t *testing.T) (*sqlstore.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	return sqlstore.New(sqlx.NewDb(db, "postgres"), "", 0, logger.Discard()), mock
}

func TestMockCreateStudentCommits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO students (name, email, age, phone) VALUES ($1, $2, $3, $4) RETURNING id`).
		WithArgs("Foo", "foo@example.com", 20, "1234567890").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	id, err := s.CreateStudent(context.Background(), foo())
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockCreateStudentRollsBackOnDriverError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO students (name, email, age, phone) VALUES ($1, $2, $3, $4) RETURNING id`).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "students_email_key"`))
	mock.ExpectRollback()

	_, err := s.CreateStudent(context.Background(), foo())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockUpdateStudentBuildsParameterizedSet(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE students SET email = $1, phone = $2 WHERE id = $3`).
		WithArgs("new@example.com", "1234567895", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.UpdateStudentByID(context.Background(), 3, types.StudentPatch{
		Email: ptr("new@example.com"),
		Phone: ptr("1234567895"),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockUpdateStudentZeroRowsRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE students SET name = $1 WHERE id = $2`).
		WithArgs("Bar", int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.UpdateStudentByID(context.Background(), 404, types.StudentPatch{Name: ptr("Bar")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockUpdateStudentEmptyPatchIssuesNoSQL(t *testing.T) {
	s, mock := newMockStore(t)

	err := s.UpdateStudentByID(context.Background(), 1, types.StudentPatch{})
	assert.ErrorIs(t, err, storage.ErrNoFieldsProvided)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockDeleteStudent(t *testing.T) {
	t.Run("commits when a row is deleted", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM students WHERE id = $1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, s.DeleteStudentByID(context.Background(), 5))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when nothing matched", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM students WHERE id = $1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, s.DeleteStudentByID(context.Background(), 5), storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure is a storage error", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin().WillReturnError(errors.New("driver: bad connection"))

		assert.ErrorIs(t, s.DeleteStudentByID(context.Background(), 5), storage.ErrStorage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMockGetStudentsQueryFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, email, age, phone FROM students ORDER BY id`).
		WillReturnError(errors.New("pq: relation \"students\" does not exist"))

	_, err := s.GetStudents(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockGetStudentByID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, email, age, phone FROM students WHERE id = $1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "age", "phone"}).
			AddRow(1, "Foo", "foo@example.com", 20, "1234567890"))

	got, err := s.GetStudentByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, types.Student{ID: 1, Name: "Foo", Email: "foo@example.com", Age: 20, Phone: "1234567890"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

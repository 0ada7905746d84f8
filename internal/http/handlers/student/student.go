// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN: closure factories.
// The router wants func(http.ResponseWriter, *http.Request); a factory takes
// the dependencies (logger, storage) once at startup and returns a handler
// that closes over them:
//
//	router.HandleFunc("POST /AddStudent", student.New(log, storage))
//
// Every handler follows the same steps: log <op>_start, decode and validate
// the input, call storage, then log <op>_success, <op>_failure (a logical
// storage failure) or <op>_error (anything else) and answer accordingly.
package student

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
	"github.com/aanand-mishra/student-records-api/internal/utils/response"
	"github.com/aanand-mishra/student-records-api/internal/validation"
)

// Endpoints served by this package.
const (
	EndpointAdd    = "/AddStudent"
	EndpointList   = "/GetAllStudents"
	EndpointGet    = "/GetStudent"
	EndpointUpdate = "/v2/UpdateStudent"
	EndpointDelete = "/v2/DeleteStudent"
)

const (
	queryParamID    = "id"
	msgStudentAdded = "Student data added"
	msgUpdated      = "Data is updated"
	msgDeleted      = "Student deleted successfully"
)

// CreatedResponse is the body of a successful POST /AddStudent.
type CreatedResponse struct {
	Message   string `json:"message"`
	StudentID int64  `json:"student_id"`
}

func requestLogger(log *slog.Logger, endpoint string, r *http.Request) *slog.Logger {
	return log.With(
		slog.String("endpoint", endpoint),
		slog.String("method", r.Method),
	)
}

// writeInputError answers a decode/validation failure: 422 with per-field
// details, or 400 for a body that is not JSON at all.
func writeInputError(w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		log.Error("validation_error", slog.Any("error", vErr.Details()))
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.ValidationError(vErr))
		return
	}

	var mErr *validation.MalformedError
	if errors.As(err, &mErr) {
		log.Error("malformed_json", slog.String("error", mErr.Error()))
		response.WriteJSON(w, http.StatusBadRequest, response.MalformedError(mErr))
		return
	}

	log.Error("request_body_error", slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusBadRequest, response.DetailError(err.Error()))
}

// writeStorageError answers a failed storage call. Logical failures are a
// 400 with the client-safe message; anything else gets unexpectedStatus.
func writeStorageError(w http.ResponseWriter, log *slog.Logger, op string, err error, unexpectedStatus int) {
	if msg, ok := storage.ClientMessage(err); ok {
		log.Error(op+"_failure", slog.String("error", msg))
		response.WriteJSON(w, http.StatusBadRequest, response.DetailError(msg))
		return
	}

	log.Error(op+"_error", slog.String("error", err.Error()))
	response.WriteJSON(w, unexpectedStatus, response.DetailError(err.Error()))
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /AddStudent
//
// Request body (JSON), every field required, no extra fields:
//
//	{ "name": "Foo", "email": "foo@example.com", "age": 20, "phone": "1234567890" }
//
// Success response (200 OK):
//
//	{ "message": "Student data added", "student_id": 1 }
//
// Error responses:
//
//	422 Unprocessable: failed validation
//	400 Bad Request: malformed JSON or storage failure
//
// ─────────────────────────────────────────────────────────────────────────────
func New(log *slog.Logger, storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, EndpointAdd, r)
		log.Info("create_student_start")

		var in types.StudentInput
		if err := validation.DecodeJSON(r.Body, &in); err != nil {
			writeInputError(w, log, err)
			return
		}
		if err := validation.Struct(in); err != nil {
			writeInputError(w, log, err)
			return
		}

		id, err := storage.CreateStudent(r.Context(), in.Student())
		if err != nil {
			writeStorageError(w, log, "create_student", err, http.StatusBadRequest)
			return
		}

		log.Info("create_student_success", slog.Int64("student_id", id))
		response.WriteJSON(w, http.StatusOK, CreatedResponse{
			Message:   msgStudentAdded,
			StudentID: id,
		})
	}
}

// GetList handles GET /GetAllStudents
// Returns a JSON array of all students; [] (not null) when there are none.
func GetList(log *slog.Logger, storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, EndpointList, r)
		log.Info("get_all_students_start")

		students, err := storage.GetStudents(r.Context())
		if err != nil {
			writeStorageError(w, log, "get_all_students", err, http.StatusBadRequest)
			return
		}

		log.Info("get_all_students_success", slog.Int("student_count", len(students)))
		response.WriteJSON(w, http.StatusOK, students)
	}
}

// GetByID handles GET /GetStudent?id=<int>
// 200 with the student, 422 for a missing/non-integer id, 400 if not found.
func GetByID(log *slog.Logger, storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, EndpointGet, r)
		log.Info("get_student_start")

		id, err := validation.QueryID(r.URL.Query(), queryParamID)
		if err != nil {
			writeInputError(w, log, err)
			return
		}

		student, err := storage.GetStudentByID(r.Context(), id)
		if err != nil {
			writeStorageError(w, log, "get_student", err, http.StatusBadRequest)
			return
		}

		log.Info("get_student_success", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PATCH /v2/UpdateStudent?id=<int>
// Changes only the fields present in the body.
//
// Request body (JSON), any non-empty subset:
//
//	{ "phone": "1234567895" }
//
// Success response (200 OK):
//
//	{ "message": "Data is updated" }
//
// Error responses:
//
//	422 Unprocessable: bad id or failed validation
//	400 Bad Request: no fields, unknown id, storage failure
//	500 Internal: anything unexpected
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(log *slog.Logger, storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, EndpointUpdate, r)
		log.Info("update_student_start")

		id, err := validation.QueryID(r.URL.Query(), queryParamID)
		if err != nil {
			writeInputError(w, log, err)
			return
		}

		var patch types.StudentPatch
		if err := validation.DecodeJSON(r.Body, &patch); err != nil {
			writeInputError(w, log, err)
			return
		}
		if err := validation.Struct(patch); err != nil {
			writeInputError(w, log, err)
			return
		}

		if err := storage.UpdateStudentByID(r.Context(), id, patch); err != nil {
			writeStorageError(w, log, "update_student", err, http.StatusInternalServerError)
			return
		}

		log.Info("update_student_success", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: msgUpdated})
	}
}

// Delete handles DELETE /v2/DeleteStudent?id=<int>
// Permanently removes a student. Deleting the same id twice answers 400
// the second time.
func Delete(log *slog.Logger, storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, EndpointDelete, r)
		log.Info("delete_student_start")

		id, err := validation.QueryID(r.URL.Query(), queryParamID)
		if err != nil {
			writeInputError(w, log, err)
			return
		}

		if err := storage.DeleteStudentByID(r.Context(), id); err != nil {
			writeStorageError(w, log, "delete_student", err, http.StatusInternalServerError)
			return
		}

		log.Info("delete_student_success", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: msgDeleted})
	}
}

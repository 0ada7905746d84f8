// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client. Rather
// than repeating the same three lines (set header, set status, encode JSON)
// in every handler, we centralise them here together with the error shapes
// clients rely on.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aanand-mishra/student-records-api/internal/validation"
)

// Messages shown in error envelopes.
const (
	MsgValidationFailed = "Validation failed for the input data."
	MsgMalformedJSON    = "Given JSON is not well formatted, please check the input JSON"
)

// Envelope is the uniform error wrapper for validation and malformed-body
// failures:
//
//	{ "error": "Validation failed for the input data.", "details": ["body -> phone: ..."] }
type Envelope struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}

// Detail carries a single failure message: { "detail": "student not found" }
type Detail struct {
	Detail string `json:"detail"`
}

// Message carries a success message: { "message": "Data is updated" }
type Message struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// Order matters: Header() → WriteHeader() → body writes. Once WriteHeader is
// called, headers are locked.
//
// HTML escaping is off so details read "body -> phone", not "body -\u003e phone".
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

// DetailError wraps a message into the Detail shape.
func DetailError(msg string) Detail {
	return Detail{Detail: msg}
}

// ValidationError converts a validation failure into the 422 envelope.
func ValidationError(err *validation.Error) Envelope {
	return Envelope{
		Error:   MsgValidationFailed,
		Details: err.Details(),
	}
}

// MalformedError converts a JSON parse failure into the 400 envelope.
func MalformedError(err error) Envelope {
	return Envelope{
		Error:   MsgMalformedJSON,
		Details: err.Error(),
	}
}

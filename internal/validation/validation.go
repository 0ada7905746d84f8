// Package validation turns raw request input into validated payloads.
//
// It owns two failure shapes:
//
//   - *Error: the input is well-formed JSON (or a query string) but breaks a
//     rule. It carries one Issue per offending field and maps to 422.
//   - *MalformedError: the body is not JSON at all. It maps to 400.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Locations used as the first element of an issue path.
const (
	LocBody  = "body"
	LocQuery = "query"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole process.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names ("phone") instead of Go names ("Phone").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Issue is one (field path, message) pair.
type Issue struct {
	Path    []string
	Message string
}

func (i Issue) String() string {
	return strings.Join(i.Path, " -> ") + ": " + i.Message
}

// Error is returned when input fails shape or constraint checks.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Details(), "; ")
}

// Details renders every issue as "<field path>: <message>".
func (e *Error) Details() []string {
	out := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		out = append(out, i.String())
	}
	return out
}

func issue(msg string, path ...string) *Error {
	return &Error{Issues: []Issue{{Path: path, Message: msg}}}
}

// MalformedError is returned when a body cannot be parsed as JSON.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string { return e.Err.Error() }
func (e *MalformedError) Unwrap() error { return e.Err }

// DecodeJSON strictly decodes a single JSON object from r into dst.
// Unknown fields, an empty body, mismatched types and trailing data are
// reported as *Error; syntax errors as *MalformedError.
//
// encoding/json matches keys case-insensitively, so keys are first checked
// against the exact json tags of dst. A body carrying extra keys is
// reported together with whatever the remaining keys fail.
func DecodeJSON(r io.Reader, dst any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	extra, body := splitExtraKeys(raw, dst)
	if err := decodeStrict(body, dst); err != nil {
		var vErr *Error
		if len(extra) > 0 && errors.As(err, &vErr) {
			return &Error{Issues: append(extra, vErr.Issues...)}
		}
		return err
	}
	if len(extra) == 0 {
		return nil
	}

	out := &Error{Issues: extra}
	var vErr *Error
	if errors.As(Struct(dst), &vErr) {
		out.Issues = append(out.Issues, vErr.Issues...)
	}
	return out
}

func decodeStrict(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return &MalformedError{Err: errors.New("unexpected data after JSON object")}
	}
	return nil
}

// splitExtraKeys returns one issue per top-level key that is not an exact
// json tag of dst, and the body with those keys removed. Anything that is
// not a plain JSON object comes back untouched for decodeStrict to report.
func splitExtraKeys(raw []byte, dst any) ([]Issue, []byte) {
	known := jsonNames(dst)
	if known == nil {
		return nil, raw
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, raw
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var extra []Issue
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			extra = append(extra, Issue{Path: []string{LocBody, key}, Message: "Extra inputs are not permitted"})
			delete(obj, key)
		}
	}
	if len(extra) == 0 {
		return nil, raw
	}

	body, err := json.Marshal(obj)
	if err != nil {
		return nil, raw
	}
	return extra, body
}

// jsonNames lists the json keys of the struct dst points to, or nil when
// dst is not a struct pointer.
func jsonNames(dst any) map[string]struct{} {
	t := reflect.TypeOf(dst)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil
	}
	t = t.Elem()

	names := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		names[name] = struct{}{}
	}
	return names
}

func decodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, io.EOF):
		return issue("Field required", LocBody)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &MalformedError{Err: err}
	case errors.As(err, &syntaxErr):
		return &MalformedError{Err: err}
	case errors.As(err, &typeErr):
		path := []string{LocBody}
		if typeErr.Field != "" {
			path = append(path, strings.Split(typeErr.Field, ".")...)
		}
		return issue("Input should be a valid "+kindName(typeErr.Type), path...)
	}

	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return issue("Extra inputs are not permitted", LocBody, strings.Trim(field, `"`))
	}
	return err
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.String:
		return "string"
	case reflect.Struct, reflect.Map:
		return "dictionary"
	case reflect.Bool:
		return "boolean"
	default:
		return t.Kind().String()
	}
}

// Struct checks the validate:"..." rules of a decoded body payload.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &Error{}
	for _, fe := range fieldErrs {
		out.Issues = append(out.Issues, Issue{
			Path:    []string{LocBody, fe.Field()},
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field required"
	case "email":
		return "value is not a valid email address"
	case "phone":
		return "String should match pattern '^\\d{10}$'"
	case "min":
		return fmt.Sprintf("String should have at least %s character", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

// QueryID reads a required integer query parameter.
func QueryID(q url.Values, name string) (int64, error) {
	raw, ok := q[name]
	if !ok || len(raw) == 0 {
		return 0, issue("Field required", LocQuery, name)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw[0]), 10, 64)
	if err != nil {
		return 0, issue("Input should be a valid integer, unable to parse string as an integer", LocQuery, name)
	}
	return id, nil
}

// Package middleware contains the cross-cutting HTTP wrappers: request
// metrics, panic recovery and the malformed JSON body guard.
package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/metrics"
	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

// MaxBodyBytes caps every request body read by the JSON guard.
const MaxBodyBytes = 1 << 20

// UnmatchedEndpoint labels requests for paths that are not routes.
const UnmatchedEndpoint = "unmatched"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

// Metrics records count, latency and errors for every request, labelled by
// endpoint, method and status code. Paths missing from endpoints are
// labelled UnmatchedEndpoint.
func Metrics(m *metrics.Metrics, endpoints []string) Middleware {
	known := make(map[string]struct{}, len(endpoints))
	for _, e := range endpoints {
		known[e] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Deferred so a request that ends in a panic (including a
			// re-raised http.ErrAbortHandler) is still counted.
			defer func() {
				rv := recover()

				status := rec.status
				if rv != nil && !rec.wroteHeader {
					status = http.StatusInternalServerError
				}
				endpoint := r.URL.Path
				if _, ok := known[endpoint]; !ok {
					endpoint = UnmatchedEndpoint
				}
				m.Observe(endpoint, r.Method, status, time.Since(start))

				if rv != nil {
					panic(rv)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

// Recover turns a handler panic into a logged 500 response.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rv := recover()
				if rv == nil {
					return
				}
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				log.Error("unhandled_panic",
					slog.String("endpoint", r.URL.Path),
					slog.String("method", r.Method),
					slog.String("error", fmt.Sprint(rv)))
				response.WriteJSON(w, http.StatusInternalServerError,
					response.DetailError("internal server error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// JSONGuard inspects the body of any request declaring a JSON content type
// and rejects it with 400 when it does not parse, before it reaches
// routing. Valid bodies are handed on unchanged.
func JSONGuard(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isJSON(r.Header.Get("Content-Type")) || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
			if err != nil {
				status := http.StatusBadRequest
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					status = http.StatusRequestEntityTooLarge
				}
				log.Error("request_body_unreadable",
					slog.String("endpoint", r.URL.Path),
					slog.String("method", r.Method),
					slog.String("error", err.Error()))
				response.WriteJSON(w, status, response.DetailError(err.Error()))
				return
			}

			// An empty body is left to the handler: some routes take none.
			if len(bytes.TrimSpace(body)) > 0 {
				var v any
				if err := json.Unmarshal(body, &v); err != nil {
					log.Error("malformed_json",
						slog.String("endpoint", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("error", err.Error()))
					response.WriteJSON(w, http.StatusBadRequest, response.MalformedError(err))
					return
				}
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

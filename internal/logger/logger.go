// Package logger builds the process-wide *slog.Logger.
//
// Every record is a single JSON object per line carrying the call site:
//
//	{"timestamp":"2024-05-01 10:00:00.000","level":"INFO","message":"create_student_start",
//	 "endpoint":"/AddStudent","method":"POST","function":"student.New.func1",
//	 "line":42,"file":"student.go","module":"student"}
//
// main creates the logger once and injects it into the components.
package logger

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

// Environments recognised by New.
const (
	EnvLocal   = "local"
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

// TimeFormat is the layout of the "timestamp" field.
const TimeFormat = "2006-01-02 15:04:05.000"

// New returns a logger for the given environment.
//
// "local" writes human-readable text, everything else writes JSON.
// "local" and "dev" log at DEBUG, the rest at INFO.
func New(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if env == EnvLocal || env == EnvDev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}

	var h slog.Handler
	if env == EnvLocal {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(&callerHandler{Handler: h})
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("timestamp", a.Value.Time().Format(TimeFormat))
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// callerHandler adds function, line, file and module of the logging call.
type callerHandler struct {
	slog.Handler
}

func (h *callerHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := frames.Next()

		r = r.Clone()
		r.AddAttrs(
			slog.String("function", shortFunction(f.Function)),
			slog.Int("line", f.Line),
			slog.String("file", filepath.Base(f.File)),
			slog.String("module", strings.TrimSuffix(filepath.Base(f.File), ".go")),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *callerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &callerHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *callerHandler) WithGroup(name string) slog.Handler {
	return &callerHandler{Handler: h.Handler.WithGroup(name)}
}

// shortFunction trims the import path: "github.com/x/y/student.New.func1"
// becomes "student.New.func1".
func shortFunction(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		return fn[i+1:]
	}
	return fn
}

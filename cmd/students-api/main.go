// main is the entry point of the Student Records API.
//
// STARTUP SEQUENCE:
//  1. Load configuration (.env, optional YAML, environment)
//  2. Initialise the JSON logger
//  3. Open the connection pool and create the students table
//  4. Build the metrics registry and the router
//  5. Start the HTTP server in a separate goroutine
//  6. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close the pool, exit
//
// RUNNING THE SERVER:
//
//	POSTGRES_DB=school POSTGRES_USER=admin POSTGRES_PASSWORD=secret \
//	POSTGRES_HOST=localhost POSTGRES_PORT=5432 go run ./cmd/students-api
//
// or, against a local SQLite file:
//
//	go run ./cmd/students-api --config=config/local.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/http/router"
	"github.com/aanand-mishra/student-records-api/internal/logger"
	"github.com/aanand-mishra/student-records-api/internal/metrics"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/storage/postgres"
	"github.com/aanand-mishra/student-records-api/internal/storage/sqlite"
	"github.com/aanand-mishra/student-records-api/internal/storage/sqlstore"
)

const version = "1.0.0"

func main() {
	startedAt := time.Now()

	// ── 1. Load Config ────────────────────────────────────────────────────
	// MustLoad exits if a required variable is missing, so past this line
	// the config is complete.
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := logger.New(cfg.Env, os.Stdout)

	log.Info("starting student-records-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
		slog.String("db_driver", cfg.Database.Driver),
	)

	// ── 3. Initialise Storage (Database) ──────────────────────────────────
	// Everything past this point only sees the storage.Storage interface.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.QueryTimeout)
	store, err := openStorage(ctx, cfg.Database, log)
	cancel()
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised")

	// ── 4. Metrics + Routes ───────────────────────────────────────────────
	handler := router.New(router.Deps{
		Log:       log,
		Storage:   store,
		Metrics:   metrics.NewDefault(),
		StartedAt: startedAt,
	})

	// ── 5. Create the HTTP Server ─────────────────────────────────────────
	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr(),
		Handler: handler,

		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 6. Start Server in a Goroutine ────────────────────────────────────
	// ListenAndServe blocks, so it runs off the main goroutine to leave
	// room for the signal handling below.
	go func() {
		log.Info("server started", slog.String("address", server.Addr))

		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	// In-flight requests get ShutdownTimeout to finish. The pool is closed
	// only after the server stops handing out work to it.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
	}

	if err := store.Close(); err != nil {
		log.Error("failed to close storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// openStorage picks the backend named by DB_DRIVER.
func openStorage(ctx context.Context, cfg config.Database, log *slog.Logger) (storage.Storage, error) {
	var (
		store *sqlstore.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err = postgres.New(ctx, cfg, log)
	case config.DriverSQLite:
		store, err = sqlite.New(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Package health serves GET /HealthCheck.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

// Endpoint is the route served by Handler.
const Endpoint = "/HealthCheck"

// Component statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusUp        = "up"
)

// Pinger is the slice of storage.Storage the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Report is the health check body.
type Report struct {
	Status     string     `json:"status"`
	Components Components `json:"components"`
}

type Components struct {
	Database    Database    `json:"database"`
	Application Application `json:"application"`
}

type Database struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

type Application struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Handler reports process uptime and database reachability: 200 when the
// ping succeeds, 503 with the ping error otherwise.
func Handler(log *slog.Logger, db Pinger, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := Report{
			Status: StatusHealthy,
			Components: Components{
				Database: Database{Status: StatusHealthy},
				Application: Application{
					Status:        StatusUp,
					UptimeSeconds: int64(time.Since(startedAt).Seconds()),
				},
			},
		}

		if err := db.Ping(r.Context()); err != nil {
			report.Status = StatusUnhealthy
			report.Components.Database = Database{Status: StatusUnhealthy, Details: err.Error()}

			log.Error("health_check_db_error",
				slog.String("endpoint", Endpoint),
				slog.String("method", r.Method),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, report)
			return
		}

		response.WriteJSON(w, http.StatusOK, report)
	}
}

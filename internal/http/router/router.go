// Package router builds the complete HTTP handler: the route table plus the
// middleware stack around it.
//
// ROUTING: Go 1.22+ ServeMux patterns carry the method ("GET /HealthCheck"),
// so a request with the right path but the wrong method gets a 405 from the
// mux itself and never reaches a handler.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/http/handlers/health"
	"github.com/aanand-mishra/student-records-api/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records-api/internal/http/middleware"
	"github.com/aanand-mishra/student-records-api/internal/metrics"
	"github.com/aanand-mishra/student-records-api/internal/storage"
)

// MetricsEndpoint serves the Prometheus exposition.
const MetricsEndpoint = "/metrics"

// Deps is everything the handlers close over.
type Deps struct {
	Log       *slog.Logger
	Storage   storage.Storage
	Metrics   *metrics.Metrics
	StartedAt time.Time
}

type route struct {
	method  string
	path    string
	handler http.Handler
}

// New returns the root handler.
//
// Route table:
//
//	POST   /AddStudent           → create a student
//	GET    /GetAllStudents       → list all students
//	GET    /GetStudent?id=       → get one student
//	PATCH  /v2/UpdateStudent?id= → partial update
//	DELETE /v2/DeleteStudent?id= → delete a student
//	GET    /HealthCheck          → liveness + database reachability
//	GET    /metrics              → Prometheus metrics
//
// Middleware, outermost first: metrics, panic recovery, JSON body guard.
func New(d Deps) http.Handler {
	routes := []route{
		{http.MethodPost, student.EndpointAdd, student.New(d.Log, d.Storage)},
		{http.MethodGet, student.EndpointList, student.GetList(d.Log, d.Storage)},
		{http.MethodGet, student.EndpointGet, student.GetByID(d.Log, d.Storage)},
		{http.MethodPatch, student.EndpointUpdate, student.Update(d.Log, d.Storage)},
		{http.MethodDelete, student.EndpointDelete, student.Delete(d.Log, d.Storage)},
		{http.MethodGet, health.Endpoint, health.Handler(d.Log, d.Storage, d.StartedAt)},
		{http.MethodGet, MetricsEndpoint, d.Metrics.Handler()},
	}

	mux := http.NewServeMux()
	endpoints := make([]string, 0, len(routes))
	for _, rt := range routes {
		mux.Handle(rt.method+" "+rt.path, rt.handler)
		endpoints = append(endpoints, rt.path)
	}

	return middleware.Chain(mux,
		middleware.Metrics(d.Metrics, endpoints),
		middleware.Recover(d.Log),
		middleware.JSONGuard(d.Log),
	)
}

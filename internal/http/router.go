// Package httpapi wires the HTTP surface: routes, middleware and the
// metrics endpoint.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers every route on a chi router.
//
// Route table:
//
//	GET    /list          → list all students
//	POST   /add           → create a student
//	PUT    /update        → change name and/or email
//	DELETE /delete/{id}   → delete a student
//	GET    /student/{id}  → fetch one student
//	GET    /healthz       → storage ping
//	GET    /metrics       → Prometheus (when m is non-nil)
func NewRouter(svc student.Service, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger, m))

	r.Get("/list", student.List(svc))
	r.Post("/add", student.Add(svc, m))
	r.Put("/update", student.Update(svc, m))
	r.Delete("/delete/{id}", student.Delete(svc, m))
	r.Get("/student/{id}", student.GetByID(svc))
	r.Get("/healthz", student.Health(svc))

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	return r
}

// unmatchedRoute labels requests no route pattern matched.
const unmatchedRoute = "unmatched"

// requestLogger logs one line per request and records its latency.
func requestLogger(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			// raw paths would give every unknown URL its own series
			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			logger.InfoContext(r.Context(), "request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", elapsed),
			)

			if m != nil {
				m.RequestDuration.
					WithLabelValues(route, r.Method, strconv.Itoa(status)).
					Observe(elapsed.Seconds())
			}
		})
	}
}

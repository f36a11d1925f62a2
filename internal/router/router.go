// Package router assembles the HTTP surface: global middleware, module
// routes, and the health and metrics endpoints.
package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veil/internal/platform/metrics"
	"veil/internal/platform/middleware"
	"veil/pkg/platform/httputil"
)

// Registrar mounts a module's routes on the shared router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports liveness of one dependency.
type HealthCheck func(ctx context.Context) error

// New builds the service router. Middleware order matters: request IDs first
// so every later log line carries one, recovery before logging so panics are
// still logged as completed requests.
func New(logger *slog.Logger, m *metrics.Metrics, checks map[string]HealthCheck, modules ...Registrar) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Device)
	r.Use(middleware.Latency(m))

	r.Get("/healthz", handleHealth(checks))
	r.Handle("/metrics", promhttp.Handler())

	for _, module := range modules {
		module.Register(r)
	}
	return r
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Components = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Components[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "up"
		}

		httputil.WriteJSON(w, status, resp)
	}
}

// Package httptransport assembles the public HTTP surface. Each module owns
// its routes; the router only adds the cross-cutting middleware and the
// operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crafted/internal/platform/metrics"
	"crafted/internal/platform/middleware"
	"crafted/pkg/platform/httputil"
)

const healthTimeout = 2 * time.Second

// Module is anything that mounts its own routes.
type Module interface {
	Register(r chi.Router)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter wires middleware, /health, /metrics and every module's routes.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, checks map[string]HealthCheck, modules ...Module) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger, m))

	r.Get("/health", healthHandler(logger, checks))
	r.Handle("/metrics", promhttp.Handler())

	for _, mod := range modules {
		mod.Register(r)
	}
	return r
}

// healthHandler reports 503 when any dependency check fails.
func healthHandler(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"check", name,
					"error", err,
				)
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

// Package httpapi assembles the public router: shared middleware, health
// probes, metrics and the versioned lifecycle API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"minbar/internal/platform/metrics"
	authmw "minbar/pkg/platform/middleware/auth"
	"minbar/pkg/platform/middleware/metadata"
	request "minbar/pkg/platform/middleware/request"
	"minbar/pkg/platform/middleware/requesttime"
)

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Validator      authmw.JWTValidator
	Sessions       authmw.SessionChecker
	RequestTimeout time.Duration
	Checks         map[string]HealthCheck
	// TrustProxyHeaders lets X-Forwarded-For name the client.
	TrustProxyHeaders bool
}

// NewRouter wires every public endpoint. Authentication is optional at this
// level; routes that need a caller refuse anonymous requests themselves.
func NewRouter(deps Deps, api ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(deps.Logger))
	r.Use(request.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.LatencyMiddleware)
	}
	r.Use(metadata.ClientMetadata(deps.TrustProxyHeaders))
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(deps.Checks))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/v1", func(v1 chi.Router) {
		if deps.RequestTimeout > 0 {
			v1.Use(chimw.Timeout(deps.RequestTimeout))
		}
		v1.Use(authmw.OptionalAuth(deps.Validator, deps.Sessions, deps.Logger))
		for _, reg := range api {
			reg.Register(v1)
		}
	})
	return r
}

func readiness(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		render.Status(r, status)
		render.JSON(w, r, report)
	}
}

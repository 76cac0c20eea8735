package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/platform/metrics"
	"rollcall/internal/platform/middleware"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/platform/middleware/admin"
	request "rollcall/pkg/platform/middleware/request"
)

// Registrar mounts a feature's routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// Check reports whether a dependency is ready to serve traffic.
type Check func(ctx context.Context) error

// Config carries everything the router needs besides the feature handlers.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	AdminToken     string
	Validator      middleware.JWTValidator
	Accounts       middleware.AccountResolver
	Readiness      map[string]Check
	Now            func() time.Time
}

// Handlers groups the feature handlers by guard.
type Handlers struct {
	Admin         []Registrar
	Authenticated []Registrar
}

// NewRouter wires the shared middleware chain, the operational endpoints and
// the feature routes. Admin routes require the admin token; everything else
// under the API requires a bearer token for a live account.
func NewRouter(cfg Config, h Handlers) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestClock(cfg.Now))
	r.Use(request.ClientMetadata)
	r.Use(request.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.LatencyMiddleware(cfg.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(cfg.Readiness, cfg.Logger))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.RequestTimeout))
		r.Use(request.ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(cfg.AdminToken, cfg.Logger))
			for _, reg := range h.Admin {
				reg.Register(r)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.Validator, cfg.Accounts, cfg.Logger))
			for _, reg := range h.Authenticated {
				reg.Register(r)
			}
		})
	})

	return r
}

func readiness(checks map[string]Check, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{"checks": results})
	}
}

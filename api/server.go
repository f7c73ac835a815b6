/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for a frontend
  5. Metrics:    Prometheus counters/histograms per route pattern
  6. Principal:  X-User-ID header -> core.Principal in context

ROUTE GROUPS:
  /api/users/*   User Directory
  /api/leaves/*  Leave Ledger (requires a principal)
  /metrics       Prometheus scrape endpoint
  /healthz       Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Principal resolution
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/warp/leave-tracker/metrics"
)

// RouterOptions configures the router.
type RouterOptions struct {
	CORSOrigins []string
	Registry    *prometheus.Registry
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	collector := metrics.NewCollector(opts.Registry)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", PrincipalHeader},
		AllowCredentials: true,
	}))
	r.Use(collector.Middleware)
	r.Use(Principal)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)

			r.Group(func(r chi.Router) {
				r.Use(RequirePrincipal)
				r.Get("/", h.ListUsers)
				r.Put("/me", h.UpdateMe)
				r.Put("/{id}/promote", h.PromoteUser)
			})
		})

		r.Route("/leaves", func(r chi.Router) {
			r.Use(RequirePrincipal)
			r.Post("/", h.RequestLeave)
			r.Get("/", h.ListMyLeaves)
			r.Get("/{id}", h.GetLeave)
			r.Put("/{id}", h.UpdateLeave)
			r.Put("/{id}/status", h.UpdateLeaveStatus)
			r.Delete("/{id}", h.DeleteLeave)
		})
	})

	r.Handle("/metrics", metrics.Handler(opts.Registry))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}

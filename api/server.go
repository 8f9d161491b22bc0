/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for dashboards
  5. instrument: Prometheus request latency

ROUTE GROUPS:
  /api/schedules/*  Schedule lifecycle, oracle views, payout journal
  /api/scenarios/*  Demo scenarios (dev)
  /healthz          Liveness
  /metrics          Prometheus exposition

SECURITY NOTE:
  No authentication middleware. Caller identity comes from request
  bodies and the ledger re-verifies it on execution; put signature
  verification in front of this for production.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(instrument)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", h.ListSchedules)
			r.Post("/", h.ConfigureSchedule)
			r.Get("/{id}", h.GetSchedule)
			r.Post("/{id}/fund", h.FundSchedule)
			r.Post("/{id}/distribute", h.Distribute)
			r.Post("/{id}/claim", h.Claim)
			r.Get("/{id}/claimable", h.GetClaimable)
			r.Get("/{id}/role", h.GetRole)
			r.Get("/{id}/payouts", h.ListPayouts)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	r.Get("/healthz", h.Healthz)
	r.Method("GET", "/metrics", promhttp.Handler())

	return r
}

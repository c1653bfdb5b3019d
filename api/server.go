/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the back-office UI

ROUTE GROUPS:
  /api/policies/*    Policy issuance, payments, lifecycle, refunds
  /api/scenarios/*   Demo data loaders (dev only)
  /metrics           Prometheus

SECURITY NOTE:
  No authentication middleware. The surrounding application handles
  sessions; this service sits behind it.

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
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.ListPolicies)
			r.Post("/", h.IssuePolicy)
			r.Get("/{id}", h.GetPolicy)
			r.Get("/{id}/status", h.GetStatus)
			r.Get("/{id}/advances", h.GetAdvances)
			r.Post("/{id}/payments", h.RecordPayment)
			r.Post("/{id}/cancel", h.CancelPolicy)
			r.Post("/{id}/terminate", h.ConvertToTermination)
			r.Post("/{id}/premium", h.ReducePremium)
			r.Get("/{id}/refunds", h.ListRefunds)
		})

		// Scenario routes (demo data)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

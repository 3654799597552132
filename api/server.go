/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the desktop/web frontend

SECURITY NOTE:
  Single-user local deployment; no authentication middleware.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
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
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// User stats
		r.Route("/user", func(r chi.Router) {
			r.Get("/", h.GetUser)
			r.Post("/reevaluate", h.ReevaluateUser)
		})

		// Activities
		r.Route("/activities", func(r chi.Router) {
			r.Get("/", h.ListActivities)
			r.Post("/", h.CreateActivity)
			r.Delete("/{id}", h.DeleteActivity)
		})

		// Timer
		r.Route("/timer", func(r chi.Router) {
			r.Get("/", h.GetTimer)
			r.Post("/start", h.StartTimer)
			r.Post("/stop", h.StopTimer)
		})

		// History
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Delete("/{id}", h.DeleteEntry)
		})
		r.Get("/transactions", h.ListTransactions)

		// Catalog
		r.Get("/tiers", h.ListTiers)

		// Demo data
		r.Post("/scenarios/demo", h.LoadDemoScenario)
	})

	return r
}

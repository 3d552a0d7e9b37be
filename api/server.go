/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:   Unique ID per request for tracing
  2. RealIP:      Honor proxy headers for client addresses
  3. Logger:      Request logging
  4. Recoverer:   Panic recovery (500 instead of crash)
  5. CORS:        Cross-origin requests for the mobile web client
  6. RequireAuth: Bearer-token verification (API routes only)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token verification middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, verifier TokenVerifier) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireAuth(verifier))

		r.Post("/redeem", h.Redeem)

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", h.GetWallet)
			r.Get("/ledger", h.GetLedger)
			r.Get("/reconcile", h.Reconcile)
		})

		r.Get("/scans", h.GetScans)
		r.Get("/leaderboard", h.GetLeaderboard)

		r.Route("/social", func(r chi.Router) {
			r.Post("/", h.SubmitSocial)
			r.Get("/", h.ListSocial)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/adjust", h.CreateAdjustment)
			r.Post("/codes", h.CreateCode)
		})
	})

	return r
}

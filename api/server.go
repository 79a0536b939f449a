/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the mobile/web client

ROUTE GROUPS:
  /                   Health check (public)
  /api/auth/*         Login and token refresh (public)
  /api/me             Profile (bearer token)
  /api/activity/*     Activity recording and daily summary (bearer token)
  /api/assets*        Balance and ledger history (bearer token)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fitcoin/reward-engine/auth"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, authMW auth.Middleware, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Health check
	r.Get("/", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/kakao", h.KakaoLogin)
			r.Post("/refresh", h.Refresh)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMW.Wrap)

			r.Get("/me", h.Me)

			r.Route("/activity", func(r chi.Router) {
				r.Post("/steps", h.RecordSteps)
				r.Post("/workout", h.RecordWorkout)
				r.Get("/today", h.TodayActivity)
			})

			r.Route("/assets", func(r chi.Router) {
				r.Get("/", h.AssetSummary)
				r.Get("/history", h.AssetHistory)
			})
		})
	})

	return r
}

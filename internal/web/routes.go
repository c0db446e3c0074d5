package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-gate/internal/web/handlers"
	"github.com/kozaktomas/face-gate/internal/web/middleware"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	// Create handlers
	gateHandler := handlers.NewGateHandler(s.gate, sessionManager)
	enrollHandler := handlers.NewEnrollHandler(s.users)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Gate routes serve the pre-login flow and take no auth
		r.Post("/gate/pre-check", gateHandler.PreCheck)
		r.Post("/gate/verify", gateHandler.Verify)
		r.Get("/gate/status", gateHandler.Status)
		r.Post("/gate/reset", gateHandler.Reset)

		// Enrollment management requires a face-verified session
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireFaceVerified(sessionManager))

			r.Get("/users", enrollHandler.List)
			r.Put("/users/{id}/descriptor", enrollHandler.SetDescriptor)
			r.Delete("/users/{id}/descriptor", enrollHandler.ClearDescriptor)
		})
	})
}

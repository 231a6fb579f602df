package mockapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check (no auth required)
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth endpoint (no auth required)
		r.Post("/auth/token", s.handleToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Put("/", s.handleUpdateDevice)
					r.Delete("/", s.handleDeleteDevice)
					r.Get("/status", s.handleDeviceStatus)
				})
			})

			r.Route("/automation-rules", func(r chi.Router) {
				r.Get("/", s.handleListRules)
				r.Post("/", s.handleCreateRule)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetRule)
					r.Put("/", s.handleReplaceRule)
					r.Patch("/", s.handlePatchRule)
					r.Delete("/", s.handleDeleteRule)
				})
			})

			// Certificate provisioning (admin only)
			r.With(s.requireAdmin).Post("/certificates/provision", s.handleProvisionCert)
		})
	})

	return r
}

// handleHealth returns the server health status with entity counts.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	devices, rules := s.store.counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"version":       s.version,
		"devices_count": devices,
		"rules_count":   rules,
		"uptime_secs":   int(time.Since(s.started).Seconds()),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

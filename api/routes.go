package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rpupo63/portfolio-site-backend/config"
	"github.com/rpupo63/portfolio-site-backend/metrics"
)

// setupRoutes mounts the public reads, the gated writes and the operational endpoints
func setupRoutes(r chi.Router, cfg *config.Config, handlers *routeHandlers, authMiddleware authMiddleware, limiter *ipRateLimiter, localAuth bool) {
	r.Get("/", handlers.healthHandler.banner())
	r.Get("/healthz", handlers.healthHandler.healthz())
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	r.Route(cfg.APIPrefix, func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		// Public reads
		r.Get("/projects", handlers.projectHandler.getAllProjects())
		r.Get("/projects/{projectID}", handlers.projectHandler.getProject())
		r.Get("/settings", handlers.settingsHandler.getSettings())

		// Public, rate limited
		r.Group(func(r chi.Router) {
			r.Use(limiter.middleware)

			r.Post("/contact", handlers.contactHandler.sendMessage())
			if localAuth {
				r.Post("/auth/login", handlers.authHandler.login())
				r.Post("/auth/register", handlers.authHandler.register())
			}
		})

		// Authenticated writes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.authenticate)

			r.Post("/projects", handlers.projectHandler.createProject())
			r.Put("/projects/{projectID}", handlers.projectHandler.updateProject())
			r.Delete("/projects/{projectID}", handlers.projectHandler.deleteProject())
			r.Put("/settings", handlers.settingsHandler.updateSettings())
			r.Post("/uploads", handlers.uploadHandler.uploadImage())
		})
	})
}

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/auth"
	"github.com/rpupo63/portfolio-site-backend/config"
	"github.com/rpupo63/portfolio-site-backend/services"
)

// Dependencies are the backends the API talks to. Optional ones are left nil: Uploader
// disables uploads, Issuer disables local login and registration, SMS disables alerts.
type Dependencies struct {
	Stores   services.Stores
	Verifier auth.Verifier
	Issuer   services.TokenIssuer
	Uploader services.Uploader
	Mailer   services.EmailSender
	SMS      services.Notifier
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(cfg *config.Config, deps Dependencies) (Server, error) {
	if deps.Stores.Projects == nil || deps.Stores.Settings == nil || deps.Stores.Admins == nil {
		return Server{}, errors.New("api: stores are required")
	}
	if deps.Verifier == nil {
		return Server{}, errors.New("api: a token verifier is required")
	}

	startupTime := time.Now()

	router := newRouter(deps, withConfig(cfg), withStartupTime(startupTime))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout + 15*time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      *config.Config
	startupTime time.Time
}

func withConfig(c *config.Config) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(deps Dependencies, opts ...func(*router)) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}
	cfg := router.config

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		chiRouter.Use(middleware.RealIP)
	}
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(HTTPLoggingMiddleware(log.With().Str("component", "http").Logger()))
	if cfg.Metrics.Enabled {
		chiRouter.Use(MetricsMiddleware)
	}

	// Apply CORS middleware
	chiRouter.Use(CORSCheckMiddleware(cfg.AllowedOrigins))
	chiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "If-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	notifier := newMailErrorNotifier(deps.Mailer, cfg.Mail.ErrorRecipient, log.With().Str("component", "errorNotifier").Logger())
	handlers := initializeHandlers(cfg, deps, notifier, router.startupTime)
	authMiddleware := newAuthMiddleware(auth.NewGate(deps.Verifier, cfg.Auth.AdminEmail))
	limiter := newIPRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)

	setupRoutes(chiRouter, cfg, handlers, authMiddleware, limiter, deps.Issuer != nil)

	return chiRouter
}

// Start serves until the server is shut down. A graceful shutdown is not an error.
func (s Server) Start() error {
	log.Info().Msgf("Server started on: %s", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s Server) ShutdownGracefully(timeout time.Duration) error {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
		return err
	}
	log.Info().Msg("HttpServer gracefully shut down")
	return nil
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/errs"
)

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	ping        func(ctx context.Context) error
	startupTime time.Time
}

func newHealthHandler(ping func(ctx context.Context) error, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:   NewResponder(logger, nil),
		logger:      logger,
		ping:        ping,
		startupTime: startupTime,
	}
}

// banner answers the root path so load balancers and humans see the API is up.
func (h healthHandler) banner() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "Portfolio API running")
	}
}

// healthz reports whether the store is reachable
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} ErrorResponse "Service Unavailable - Store unreachable"
// @Router /healthz [get]
func (h healthHandler) healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			if err := h.ping(ctx); err != nil {
				h.logger.Error().Err(err).Msg("store ping failed")
				h.responder.WriteError(w, errs.NewUnavailableError("store unreachable"))
				return
			}
		}

		h.responder.WriteJSON(w, HealthResponse{
			Status: "ok",
			Uptime: time.Since(h.startupTime).Round(time.Second).String(),
		})
	}
}

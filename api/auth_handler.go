package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/metrics"
	"github.com/rpupo63/portfolio-site-backend/services"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	admins    *services.AdminService
}

func newAuthHandler(admins *services.AdminService, notifier ErrorNotifier) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger, notifier),
		logger:    logger,
		admins:    admins,
	}
}

// login exchanges admin credentials for a bearer token
// @Summary Admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body credentialsRequest true "Email and password"
// @Success 200 {object} TokenResponse "Signed token"
// @Failure 401 {object} ErrorResponse "Unauthorized - Invalid email or password"
// @Failure 429 {object} ErrorResponse "Too Many Requests"
// @Router /auth/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		token, err := h.admins.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			metrics.AuthFailuresTotal.WithLabelValues("bad_login").Inc()
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, TokenResponse{Token: token})
	}
}

// register creates the first admin account
// @Summary Register admin
// @Description Only allowed while no admin exists
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body credentialsRequest true "Email and password"
// @Success 201 {object} MessageResponse "Admin registered"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid email or password"
// @Failure 403 {object} ErrorResponse "Forbidden - Registration is closed"
// @Router /auth/register [post]
func (h authHandler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if _, err := h.admins.Register(r.Context(), req.Email, req.Password); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, MessageResponse{Message: "Admin registered"})
	}
}

package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/metrics"
	"github.com/rpupo63/portfolio-site-backend/services"
)

type contactHandler struct {
	responder Responder
	logger    zerolog.Logger
	contact   *services.ContactService
}

func newContactHandler(contact *services.ContactService, notifier ErrorNotifier) contactHandler {
	logger := log.With().Str("handlerName", "contactHandler").Logger()

	return contactHandler{
		responder: NewResponder(logger, notifier),
		logger:    logger,
		contact:   contact,
	}
}

// sendMessage relays a contact-form submission to the site owner
// @Summary Send contact message
// @Tags Contact
// @Accept json
// @Produce json
// @Param message body services.ContactMessage true "Contact form"
// @Success 202 {object} MessageResponse "Message accepted"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid message"
// @Failure 429 {object} ErrorResponse "Too Many Requests"
// @Failure 503 {object} ErrorResponse "Service Unavailable - Mail is not configured"
// @Router /contact [post]
func (h contactHandler) sendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg services.ContactMessage
		if err := decodeJSON(w, r, &msg); err != nil {
			metrics.ContactMessagesTotal.WithLabelValues("rejected").Inc()
			h.responder.WriteError(w, err)
			return
		}

		if err := h.contact.Send(r.Context(), msg); err != nil {
			result := "failed"
			if errs.IsValidationError(err) {
				result = "rejected"
			}
			metrics.ContactMessagesTotal.WithLabelValues(result).Inc()
			h.responder.WriteError(w, err)
			return
		}

		metrics.ContactMessagesTotal.WithLabelValues("sent").Inc()
		h.responder.WriteJSONStatus(w, http.StatusAccepted, MessageResponse{Message: "Message sent"})
	}
}

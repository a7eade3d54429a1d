package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/metrics"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rpupo63/portfolio-site-backend/services"
)

type settingsHandler struct {
	responder Responder
	logger    zerolog.Logger
	settings  *services.SettingsService
}

func newSettingsHandler(settings *services.SettingsService, notifier ErrorNotifier) settingsHandler {
	logger := log.With().Str("handlerName", "settingsHandler").Logger()

	return settingsHandler{
		responder: NewResponder(logger, notifier),
		logger:    logger,
		settings:  settings,
	}
}

// getSettings returns the site settings, creating the defaults on first read
// @Summary Get site settings
// @Tags Settings
// @Produce json
// @Success 200 {object} models.SiteSettings "Site settings"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error fetching settings"
// @Router /settings [get]
func (h settingsHandler) getSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := h.settings.Get(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		w.Header().Set("ETag", etag(settings.Version))
		h.responder.WriteJSON(w, settings)
	}
}

// updateSettings merges the sections present in the body
// @Summary Update site settings
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param If-Match header string false "Expected settings version"
// @Param settings body models.SettingsPatch true "Sections to merge"
// @Success 200 {object} models.SiteSettings "Updated settings"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid settings data"
// @Failure 409 {object} ErrorResponse "Conflict - Settings were changed by another request"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error updating settings"
// @Router /settings [put]
func (h settingsHandler) updateSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Authentication handled by middleware

		var patch models.SettingsPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if header := r.Header.Get("If-Match"); header != "" && patch.Version == nil {
			version, err := parseIfMatch(header)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			patch.Version = &version
		}

		settings, err := h.settings.Update(r.Context(), patch)
		if err != nil {
			if errs.IsConflict(err) {
				metrics.SettingsConflictsTotal.Inc()
			}
			h.responder.WriteError(w, err)
			return
		}

		identity, _ := ctxGetIdentity(r.Context())
		h.logger.Info().Int64("version", settings.Version).Str("by", identity.Email).Msg("site settings updated")
		w.Header().Set("ETag", etag(settings.Version))
		h.responder.WriteJSON(w, settings)
	}
}

func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

// parseIfMatch accepts `"3"`, `W/"3"` and a bare `3`.
func parseIfMatch(header string) (int64, error) {
	value := strings.TrimSpace(header)
	value = strings.TrimPrefix(value, "W/")
	value = strings.Trim(value, `"`)

	version, err := strconv.ParseInt(value, 10, 64)
	if err != nil || version < 1 {
		return 0, errs.NewInvalidFieldError("If-Match", "must be a settings version")
	}
	return version, nil
}

package api

import (
	"time"

	"github.com/rpupo63/portfolio-site-backend/config"
	"github.com/rpupo63/portfolio-site-backend/services"
)

type routeHandlers struct {
	projectHandler  projectHandler
	settingsHandler settingsHandler
	uploadHandler   uploadHandler
	authHandler     authHandler
	contactHandler  contactHandler
	healthHandler   healthHandler
}

// initializeHandlers builds the services over deps and returns every handler
func initializeHandlers(cfg *config.Config, deps Dependencies, notifier ErrorNotifier, startupTime time.Time) *routeHandlers {
	projects := services.NewProjectService(deps.Stores.Projects)
	settings := services.NewSettingsService(deps.Stores.Settings)
	admins := services.NewAdminService(deps.Stores.Admins, deps.Issuer)
	contact := services.NewContactService(deps.Mailer, cfg.Mail.ContactRecipient, deps.SMS)

	return &routeHandlers{
		projectHandler:  newProjectHandler(projects, notifier),
		settingsHandler: newSettingsHandler(settings, notifier),
		uploadHandler:   newUploadHandler(deps.Uploader, cfg.Upload.MaxBytes, notifier),
		authHandler:     newAuthHandler(admins, notifier),
		contactHandler:  newContactHandler(contact, notifier),
		healthHandler:   newHealthHandler(deps.Stores.Ping, startupTime),
	}
}

package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-site-backend/models"
)

// ProjectStore persists projects. Missing records are reported with errs.ErrNotFound.
type ProjectStore interface {
	FindAll(ctx context.Context) ([]models.Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Add(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SettingsStore persists the site settings singleton. Save fails with
// errs.ErrVersionMismatch when the stored version is not expectedVersion.
type SettingsStore interface {
	Find(ctx context.Context) (*models.SiteSettings, error)
	CreateIfAbsent(ctx context.Context, settings models.SiteSettings) error
	Save(ctx context.Context, settings *models.SiteSettings, expectedVersion int64) error
}

// AdminStore persists admins. AddFirst inserts only while no admin exists and fails
// with errs.ErrAlreadyExists otherwise, atomically with respect to concurrent callers.
type AdminStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	Add(ctx context.Context, admin *models.Admin) error
	AddFirst(ctx context.Context, admin *models.Admin) error
	Count(ctx context.Context) (int64, error)
}

// Stores is one backend's full set of stores plus its lifecycle hooks.
type Stores struct {
	Projects ProjectStore
	Settings SettingsStore
	Admins   AdminStore

	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/rpupo63/portfolio-site-backend/models"
)

// projectRow is the projects table. List fields are stored as jsonb arrays so their
// order survives the round trip.
type projectRow struct {
	ID          uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey;not null"`
	Title       string                      `gorm:"column:title;type:text;not null"`
	Description string                      `gorm:"column:description;type:text;not null"`
	Tags        datatypes.JSONSlice[string] `gorm:"column:tags;not null;default:'[]'"`
	ImageURL    string                      `gorm:"column:image_url;type:text;not null;default:''"`
	Images      datatypes.JSONSlice[string] `gorm:"column:images;not null;default:'[]'"`
	GithubURL   string                      `gorm:"column:github_url;type:text;not null;default:''"`
	LiveDemoURL string                      `gorm:"column:live_demo_url;type:text;not null;default:''"`
	CreatedAt   time.Time                   `gorm:"column:created_at;not null;index:idx_projects_created_at,sort:desc"`
	UpdatedAt   time.Time                   `gorm:"column:updated_at;not null"`
}

func (projectRow) TableName() string { return "projects" }

func newProjectRow(p models.Project) projectRow {
	p = p.Normalized()
	return projectRow{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Tags:        datatypes.NewJSONSlice(p.Tags),
		ImageURL:    p.ImageURL,
		Images:      datatypes.NewJSONSlice(p.Images),
		GithubURL:   p.GithubURL,
		LiveDemoURL: p.LiveDemoURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r projectRow) toModel() models.Project {
	return models.Project{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Tags:        []string(r.Tags),
		ImageURL:    r.ImageURL,
		Images:      []string(r.Images),
		GithubURL:   r.GithubURL,
		LiveDemoURL: r.LiveDemoURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}.Normalized()
}

// settingsRow holds the singleton under the fixed key models.SiteSettingsKey.
type settingsRow struct {
	ID        string                                  `gorm:"column:id;type:text;primaryKey"`
	Hero      datatypes.JSONType[models.HeroSettings]  `gorm:"column:hero;not null"`
	About     datatypes.JSONType[models.AboutSettings] `gorm:"column:about;not null"`
	Contact   datatypes.JSONType[models.StoredContact] `gorm:"column:contact;not null"`
	Version   int64                                   `gorm:"column:version;not null;default:1"`
	CreatedAt time.Time                               `gorm:"column:created_at;not null"`
	UpdatedAt time.Time                               `gorm:"column:updated_at;not null"`
}

func (settingsRow) TableName() string { return "site_settings" }

func newSettingsRow(s models.SiteSettings) settingsRow {
	s = s.Normalized()
	return settingsRow{
		ID:        models.SiteSettingsKey,
		Hero:      datatypes.NewJSONType(s.Hero),
		About:     datatypes.NewJSONType(s.About),
		Contact:   datatypes.NewJSONType(models.NewStoredContact(s.Contact)),
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r settingsRow) toModel() models.SiteSettings {
	stored := r.Contact.Data()
	return models.SiteSettings{
		Hero:          r.Hero.Data(),
		About:         r.About.Data(),
		Contact:       stored.Contact(),
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		LegacyContact: stored.IsLegacy(),
	}.Normalized()
}

type adminRow struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey;not null"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex:idx_admins_email"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	// FirstAdmin is set only on the admin created by registration. NULLs do not collide
	// in the unique index.
	FirstAdmin   *bool     `gorm:"column:first_admin;uniqueIndex:idx_admins_first_admin"`
}

func (adminRow) TableName() string { return "admins" }

func (r adminRow) toModel() models.Admin {
	return models.Admin{ID: r.ID, Email: r.Email, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}
}

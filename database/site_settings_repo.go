package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

type SiteSettingsRepo struct {
	db *gorm.DB
}

func NewSiteSettingsRepo(db *gorm.DB) *SiteSettingsRepo {
	return &SiteSettingsRepo{db}
}

// Find loads the singleton. It always reads from the primary because the result feeds a
// compare-and-swap write.
func (r *SiteSettingsRepo) Find(ctx context.Context) (*models.SiteSettings, error) {
	var row settingsRow
	err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		First(&row, "id = ?", models.SiteSettingsKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("site settings: %w", errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	settings := row.toModel()
	return &settings, nil
}

// CreateIfAbsent inserts the singleton unless another writer got there first.
func (r *SiteSettingsRepo) CreateIfAbsent(ctx context.Context, settings models.SiteSettings) error {
	now := time.Now().UTC()
	settings.CreatedAt = now
	settings.UpdatedAt = now
	if settings.Version == 0 {
		settings.Version = 1
	}

	row := newSettingsRow(settings)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

// Save writes all three sections if the stored version still equals expectedVersion,
// then bumps the version.
func (r *SiteSettingsRepo) Save(ctx context.Context, settings *models.SiteSettings, expectedVersion int64) error {
	now := time.Now().UTC()
	s := settings.Normalized()

	result := r.db.WithContext(ctx).
		Model(&settingsRow{}).
		Where("id = ? AND version = ?", models.SiteSettingsKey, expectedVersion).
		Updates(map[string]any{
			"hero":       datatypes.NewJSONType(s.Hero),
			"about":      datatypes.NewJSONType(s.About),
			"contact":    datatypes.NewJSONType(models.NewStoredContact(s.Contact)),
			"version":    expectedVersion + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("site settings at version %d: %w", expectedVersion, errs.ErrVersionMismatch)
	}

	settings.Version = expectedVersion + 1
	settings.UpdatedAt = now
	settings.LegacyContact = false
	return nil
}

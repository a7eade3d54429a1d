package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

// maxSaveAttempts bounds the read-merge-write loop for patches that carry no version.
const maxSaveAttempts = 3

// SettingsService owns the site settings singleton.
type SettingsService struct {
	store  SettingsStore
	logger zerolog.Logger
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{
		store:  store,
		logger: log.With().Str("serviceName", "settingsService").Logger(),
	}
}

// Get returns the settings, creating the default document on first use.
func (s *SettingsService) Get(ctx context.Context) (*models.SiteSettings, error) {
	settings, err := s.load(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "site settings", err)
	}
	return settings, nil
}

// load reads the singleton, inserting defaults when absent and reading back whatever
// document won a concurrent insert.
func (s *SettingsService) load(ctx context.Context) (*models.SiteSettings, error) {
	settings, err := s.store.Find(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	if err := s.store.CreateIfAbsent(ctx, models.DefaultSiteSettings()); err != nil {
		return nil, err
	}
	s.logger.Info().Msg("created default site settings")
	return s.store.Find(ctx)
}

// Update merges patch onto the stored settings. With an explicit version the write only
// happens if it still matches; without one, version races are retried.
func (s *SettingsService) Update(ctx context.Context, patch models.SettingsPatch) (*models.SiteSettings, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		current, err := s.load(ctx)
		if err != nil {
			return nil, errs.NewDatabaseError("find", "site settings", err)
		}

		if patch.Version != nil && *patch.Version != current.Version {
			return nil, errs.NewVersionConflict("site settings", *patch.Version, current.Version)
		}

		if patch.IsEmpty() {
			return current, nil
		}

		expected := current.Version
		patch.ApplyTo(current)

		err = s.store.Save(ctx, current, expected)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, errs.ErrVersionMismatch) {
			return nil, errs.NewDatabaseError("update", "site settings", err)
		}
		// with an explicit version the reload above reports the conflict
		if attempt >= maxSaveAttempts {
			return nil, s.versionConflict(ctx, expected)
		}
		s.logger.Debug().Int("attempt", attempt).Msg("site settings changed during update, retrying")
	}
}

// versionConflict reports the version stored now, or leaves it out when it cannot be read.
func (s *SettingsService) versionConflict(ctx context.Context, expected int64) error {
	var actual int64
	if current, err := s.store.Find(ctx); err == nil {
		actual = current.Version
	}
	return errs.NewVersionConflict("site settings", expected, actual)
}

// MigrateContact rewrites a document still using the fixed github/linkedin/twitter
// contact fields into the socialLinks shape. It reports whether anything was written.
func (s *SettingsService) MigrateContact(ctx context.Context) (bool, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.store.Find(ctx)
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, errs.NewDatabaseError("find", "site settings", err)
		}
		if !current.LegacyContact {
			return false, nil
		}

		err = s.store.Save(ctx, current, current.Version)
		if err == nil {
			s.logger.Info().Int("socialLinks", len(current.Contact.SocialLinks)).Msg("migrated legacy contact fields")
			return true, nil
		}
		if !errors.Is(err, errs.ErrVersionMismatch) || attempt >= maxSaveAttempts {
			return false, errs.NewDatabaseError("migrate", "site settings", err)
		}
	}
}

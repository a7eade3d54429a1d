package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/memstore"
	"github.com/rpupo63/portfolio-site-backend/models"
)

func int64Ptr(v int64) *int64 { return &v }

func TestSettingsService_GetCreatesDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(memstore.New().SiteSettingsRepo())

	first, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	second, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two reads differ:\n%+v\n%+v", first, second)
	}
	defaults := models.DefaultSiteSettings()
	if first.Hero != defaults.Hero || first.Contact.Email != defaults.Contact.Email {
		t.Errorf("Get() = %+v, want defaults", first)
	}
	if first.Version != 1 {
		t.Errorf("Version = %d, want 1", first.Version)
	}
}

func TestSettingsService_UpdateHeroNameOnly(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(memstore.New().SiteSettingsRepo())

	before, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	updated, err := svc.Update(ctx, models.SettingsPatch{Hero: &models.HeroPatch{Name: strPtr("Ada Lovelace")}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Hero.Name != "Ada Lovelace" {
		t.Fatalf("Hero.Name = %q", updated.Hero.Name)
	}
	if updated.Version != before.Version+1 {
		t.Errorf("Version = %d, want %d", updated.Version, before.Version+1)
	}

	after, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := *before
	want.Hero.Name = "Ada Lovelace"
	if after.Hero != want.Hero || !reflect.DeepEqual(after.About, want.About) || !reflect.DeepEqual(after.Contact, want.Contact) {
		t.Errorf("after update = %+v, want only hero.name changed from %+v", after, before)
	}
}

func TestSettingsService_UpdateContactEmailKeepsLocation(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(memstore.New().SiteSettingsRepo())

	if _, err := svc.Update(ctx, models.SettingsPatch{Contact: &models.ContactPatch{Email: strPtr("a@b.com")}}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Contact.Email != "a@b.com" || got.Contact.Location != "Your City, Country" {
		t.Errorf("Contact = %+v, want new email and default location", got.Contact)
	}
}

func TestSettingsService_UpdateVersion(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(memstore.New().SiteSettingsRepo())

	if _, err := svc.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	tests := []struct {
		name         string
		version      *int64
		wantConflict bool
	}{
		{name: "matching version", version: int64Ptr(1)},
		{name: "stale version", version: int64Ptr(1), wantConflict: true},
		{name: "current version", version: int64Ptr(2)},
		{name: "no version", version: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := svc.Get(ctx)
			_, err := svc.Update(ctx, models.SettingsPatch{
				About:   &models.AboutPatch{Headline: strPtr(tt.name)},
				Version: tt.version,
			})
			if tt.wantConflict {
				if !errs.IsConflict(err) {
					t.Fatalf("Update() error = %v, want conflict", err)
				}
				after, _ := svc.Get(ctx)
				if !reflect.DeepEqual(before, after) {
					t.Errorf("conflicting update changed the document")
				}
				return
			}
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
		})
	}
}

func TestSettingsService_EmptyPatchDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(memstore.New().SiteSettingsRepo())

	before, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got, err := svc.Update(ctx, models.SettingsPatch{})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Version != before.Version {
		t.Errorf("Version = %d, want unchanged %d", got.Version, before.Version)
	}
}

// racingStore lets another writer update the document between the service's read and
// its first save.
type racingStore struct {
	*memstore.SiteSettingsRepo
	raced  bool
	always bool
	race   func(ctx context.Context) error
}

func (s *racingStore) Save(ctx context.Context, settings *models.SiteSettings, expectedVersion int64) error {
	if !s.raced || s.always {
		s.raced = true
		if err := s.race(ctx); err != nil {
			return err
		}
	}
	return s.SiteSettingsRepo.Save(ctx, settings, expectedVersion)
}

func TestSettingsService_ConcurrentSectionUpdatesBothSurvive(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().SiteSettingsRepo()
	other := NewSettingsService(repo)

	store := &racingStore{SiteSettingsRepo: repo}
	store.race = func(ctx context.Context) error {
		_, err := other.Update(ctx, models.SettingsPatch{About: &models.AboutPatch{Headline: strPtr("Hello")}})
		return err
	}
	svc := NewSettingsService(store)

	got, err := svc.Update(ctx, models.SettingsPatch{Hero: &models.HeroPatch{Name: strPtr("Ada")}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Hero.Name != "Ada" || got.About.Headline != "Hello" {
		t.Errorf("Update() = hero %q about %q, want both writes kept", got.Hero.Name, got.About.Headline)
	}
	if got.Version != 3 {
		t.Errorf("Version = %d, want 3", got.Version)
	}
}

func TestSettingsService_ExplicitVersionRaceIsConflict(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().SiteSettingsRepo()
	other := NewSettingsService(repo)
	if _, err := other.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	store := &racingStore{SiteSettingsRepo: repo}
	store.race = func(ctx context.Context) error {
		_, err := other.Update(ctx, models.SettingsPatch{About: &models.AboutPatch{Headline: strPtr("Hello")}})
		return err
	}
	svc := NewSettingsService(store)

	_, err := svc.Update(ctx, models.SettingsPatch{Hero: &models.HeroPatch{Name: strPtr("Ada")}, Version: int64Ptr(1)})
	if !errs.IsConflict(err) {
		t.Fatalf("Update() error = %v, want conflict", err)
	}
	var apiErr *errs.ApiErr
	if !errors.As(err, &apiErr) {
		t.Fatalf("Update() error = %v, want *errs.ApiErr", err)
	}
	if apiErr.Details != "expected version 1, current version is 2" {
		t.Errorf("Details = %q, want the stored version", apiErr.Details)
	}
}

func TestSettingsService_RetriesExhaustedReportsStoredVersion(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().SiteSettingsRepo()
	other := NewSettingsService(repo)
	if _, err := other.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	store := &racingStore{SiteSettingsRepo: repo, always: true}
	store.race = func(ctx context.Context) error {
		_, err := other.Update(ctx, models.SettingsPatch{About: &models.AboutPatch{Headline: strPtr("Hello")}})
		return err
	}
	svc := NewSettingsService(store)

	_, err := svc.Update(ctx, models.SettingsPatch{Hero: &models.HeroPatch{Name: strPtr("Ada")}})
	var apiErr *errs.ApiErr
	if !errors.As(err, &apiErr) || !errs.IsConflict(err) {
		t.Fatalf("Update() error = %v, want conflict", err)
	}
	if apiErr.Details != "expected version 3, current version is 4" {
		t.Errorf("Details = %q", apiErr.Details)
	}
}

func TestSettingsService_UpdateRejectsIncompleteLinks(t *testing.T) {
	svc := NewSettingsService(memstore.New().SiteSettingsRepo())

	_, err := svc.Update(context.Background(), models.SettingsPatch{Contact: &models.ContactPatch{
		SocialLinks: &[]models.SocialLinkInput{{Platform: "github"}},
	}})
	if !errs.IsValidationError(err) {
		t.Fatalf("Update() error = %v, want validation error", err)
	}
}

func TestSettingsService_MigrateContact(t *testing.T) {
	ctx := context.Background()

	t.Run("no document", func(t *testing.T) {
		svc := NewSettingsService(memstore.New().SiteSettingsRepo())
		migrated, err := svc.MigrateContact(ctx)
		if err != nil || migrated {
			t.Fatalf("MigrateContact() = %v, %v, want false, nil", migrated, err)
		}
	})

	t.Run("legacy document", func(t *testing.T) {
		repo := memstore.New().SiteSettingsRepo()
		repo.PutLegacy(models.DefaultSiteSettings(), models.StoredContact{
			Email:    "me@example.com",
			Location: "Porto",
			Github:   "https://github.com/me",
			Linkedin: "https://linkedin.com/in/me",
		})
		svc := NewSettingsService(repo)

		read, err := svc.Get(ctx)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if len(read.Contact.SocialLinks) != 2 {
			t.Fatalf("SocialLinks on read = %+v, want 2 normalised entries", read.Contact.SocialLinks)
		}

		migrated, err := svc.MigrateContact(ctx)
		if err != nil || !migrated {
			t.Fatalf("MigrateContact() = %v, %v, want true, nil", migrated, err)
		}

		again, err := svc.MigrateContact(ctx)
		if err != nil || again {
			t.Fatalf("second MigrateContact() = %v, %v, want false, nil", again, err)
		}

		after, err := svc.Get(ctx)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !reflect.DeepEqual(after.Contact, read.Contact) {
			t.Errorf("Contact after migration = %+v, want %+v", after.Contact, read.Contact)
		}
	})
}

type brokenSettingsStore struct {
	SettingsStore
}

func (brokenSettingsStore) Find(context.Context) (*models.SiteSettings, error) {
	return nil, errors.New("connection refused")
}

func TestSettingsService_StoreFailure(t *testing.T) {
	_, err := NewSettingsService(brokenSettingsStore{}).Get(context.Background())

	var apiErr *errs.ApiErr
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 || !apiErr.Retryable {
		t.Fatalf("Get() error = %v, want retryable 500", err)
	}
}

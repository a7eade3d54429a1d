package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

// newTestDatabase opens a migrated in-memory SQLite database. One connection keeps every
// query on the same in-memory file.
func newTestDatabase(t *testing.T) (Database, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	d := New(db)
	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d, db
}

func TestProjectRepoCRUD(t *testing.T) {
	ctx := context.Background()
	d, db := newTestDatabase(t)
	repo := d.ProjectRepo()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, title := range []string{"first", "second", "third"} {
		p := &models.Project{ID: uuid.New(), Title: title, Description: "d", Tags: []string{"go", "sql"}}
		if err := repo.Add(ctx, p); err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
		// pin creation times so ordering does not depend on the clock
		if err := db.Model(&projectRow{}).Where("id = ?", p.ID).Update("created_at", base.Add(time.Duration(i)*time.Hour)).Error; err != nil {
			t.Fatalf("pin created_at: %v", err)
		}
		ids = append(ids, p.ID)
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if !reflect.DeepEqual(all[0].Tags, []string{"go", "sql"}) || all[0].Images == nil {
		t.Errorf("list fields did not survive the round trip: tags %#v images %#v", all[0].Tags, all[0].Images)
	}

	updated := all[1]
	updated.Title = "renamed"
	updated.Tags = []string{"sql", "go", "gorm"}
	updated.Images = []string{"b.png", "a.png"}
	if err := repo.Update(ctx, &updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.FindByID(ctx, updated.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.Title != "renamed" || !reflect.DeepEqual(got.Tags, updated.Tags) || !reflect.DeepEqual(got.Images, updated.Images) {
		t.Errorf("update not stored: %+v", got)
	}

	missing := models.Project{ID: uuid.New(), Title: "x", Description: "y"}
	if err := repo.Update(ctx, &missing); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("update missing: expected not found, got %v", err)
	}

	if err := repo.Delete(ctx, updated.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, updated.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("find deleted: expected not found, got %v", err)
	}
	if err := repo.Delete(ctx, updated.ID); err != nil {
		t.Errorf("deleting a missing project should succeed, got %v", err)
	}
}

func TestSiteSettingsRepoCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDatabase(t)
	repo := d.SiteSettingsRepo()

	if _, err := repo.Find(ctx); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found before create, got %v", err)
	}

	if err := repo.CreateIfAbsent(ctx, models.DefaultSiteSettings()); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := models.DefaultSiteSettings()
	other.Hero.Name = "Someone Else"
	if err := repo.CreateIfAbsent(ctx, other); err != nil {
		t.Fatalf("second create should be a no-op, got %v", err)
	}

	s, err := repo.Find(ctx)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if s.Version != 1 || s.Hero.Name != models.DefaultSiteSettings().Hero.Name {
		t.Fatalf("expected the first document at version 1, got version %d hero %q", s.Version, s.Hero.Name)
	}

	s.Hero.Name = "Ada"
	if err := repo.Save(ctx, s, 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Version != 2 {
		t.Fatalf("expected version 2 after save, got %d", s.Version)
	}

	stale := *s
	stale.Hero.Name = "Stale"
	if err := repo.Save(ctx, &stale, 1); !errors.Is(err, errs.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}

	s, err = repo.Find(ctx)
	if err != nil {
		t.Fatalf("find after save: %v", err)
	}
	if s.Version != 2 || s.Hero.Name != "Ada" {
		t.Errorf("expected version 2 with hero Ada, got version %d hero %q", s.Version, s.Hero.Name)
	}
}

func TestSiteSettingsRepoReadsLegacyContact(t *testing.T) {
	ctx := context.Background()
	d, db := newTestDatabase(t)

	row := newSettingsRow(models.DefaultSiteSettings())
	row.Version = 1
	row.Contact = datatypes.NewJSONType(models.StoredContact{Email: "me@example.com", Github: "https://github.com/me"})
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	s, err := d.SiteSettingsRepo().Find(ctx)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !s.LegacyContact {
		t.Error("expected the legacy contact shape to be reported")
	}
	want := []models.SocialLink{{Platform: "github", URL: "https://github.com/me"}}
	if !reflect.DeepEqual(s.Contact.SocialLinks, want) {
		t.Errorf("SocialLinks = %+v, want %+v", s.Contact.SocialLinks, want)
	}

	if err := d.SiteSettingsRepo().Save(ctx, s, s.Version); err != nil {
		t.Fatalf("save: %v", err)
	}
	s, err = d.SiteSettingsRepo().Find(ctx)
	if err != nil {
		t.Fatalf("find after save: %v", err)
	}
	if s.LegacyContact {
		t.Error("saving should rewrite the contact section without legacy keys")
	}
}

func TestAdminRepo(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDatabase(t)
	repo := d.AdminRepo()

	admin := &models.Admin{ID: uuid.New(), Email: " Me@Example.com", PasswordHash: "hash"}
	if err := repo.Add(ctx, admin); err != nil {
		t.Fatalf("add: %v", err)
	}
	dupe := &models.Admin{ID: uuid.New(), Email: "me@example.com", PasswordHash: "hash"}
	if err := repo.Add(ctx, dupe); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("expected already exists for a duplicate email, got %v", err)
	}

	got, err := repo.FindByEmail(ctx, "ME@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if got.ID != admin.ID || got.PasswordHash != "hash" {
		t.Errorf("unexpected admin %+v", got)
	}
	if _, err := repo.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Count() = %d, %v; want 1", n, err)
	}

	if err := repo.AddFirst(ctx, &models.Admin{ID: uuid.New(), Email: "late@example.com", PasswordHash: "hash"}); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Errorf("AddFirst with an existing admin: expected already exists, got %v", err)
	}
}

func TestAdminRepoOnlyOneFirstAdmin(t *testing.T) {
	ctx := context.Background()
	d, db := newTestDatabase(t)
	repo := d.AdminRepo()

	if err := repo.AddFirst(ctx, &models.Admin{ID: uuid.New(), Email: "first@example.com", PasswordHash: "hash"}); err != nil {
		t.Fatalf("AddFirst: %v", err)
	}

	// a registration that passed the empty-table check before the first insert landed
	first := true
	racer := adminRow{ID: uuid.New(), Email: "racer@example.com", PasswordHash: "hash", CreatedAt: time.Now().UTC(), FirstAdmin: &first}
	if err := db.WithContext(ctx).Create(&racer).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("second first-admin row: expected duplicate key, got %v", err)
	}

	if err := repo.Add(ctx, &models.Admin{ID: uuid.New(), Email: "second@example.com", PasswordHash: "hash"}); err != nil {
		t.Fatalf("admins added outside registration should not collide: %v", err)
	}
	n, err := repo.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count() = %d, %v; want 2", n, err)
	}
}

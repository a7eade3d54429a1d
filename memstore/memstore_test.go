package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

func tickingClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestProjectRepoOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewWithClock(tickingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))).ProjectRepo()

	var ids []uuid.UUID
	for _, title := range []string{"first", "second", "third"} {
		p := &models.Project{ID: uuid.New(), Title: title, Description: "d"}
		if err := repo.Add(ctx, p); err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
		ids = append(ids, p.ID)
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(all))
	}
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Fatalf("expected newest first, got %s, %s, %s", all[0].Title, all[1].Title, all[2].Title)
	}
}

func TestProjectRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := New().ProjectRepo()

	p := &models.Project{ID: uuid.New(), Title: "t", Description: "d", Tags: []string{"go"}}
	if err := repo.Add(ctx, p); err != nil {
		t.Fatalf("add: %v", err)
	}
	p.Tags[0] = "mutated"

	got, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Tags[0] != "go" {
		t.Fatalf("store shares slices with caller: %v", got.Tags)
	}
}

func TestProjectRepoUpdateMissing(t *testing.T) {
	err := New().ProjectRepo().Update(context.Background(), &models.Project{ID: uuid.New()})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSiteSettingsRepoCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := New().SiteSettingsRepo()

	if err := repo.CreateIfAbsent(ctx, models.DefaultSiteSettings()); err != nil {
		t.Fatalf("create: %v", err)
	}
	s, err := repo.Find(ctx)
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	s.Hero.Name = "Ada"
	if err := repo.Save(ctx, s, 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Version != 2 {
		t.Fatalf("expected version 2, got %d", s.Version)
	}

	err = repo.Save(ctx, s, 1)
	if !errors.Is(err, errs.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestSiteSettingsRepoCreateIfAbsentKeepsExisting(t *testing.T) {
	ctx := context.Background()
	repo := New().SiteSettingsRepo()

	first := models.DefaultSiteSettings()
	first.Hero.Name = "first"
	second := models.DefaultSiteSettings()
	second.Hero.Name = "second"

	if err := repo.CreateIfAbsent(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := repo.CreateIfAbsent(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	s, err := repo.Find(ctx)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if s.Hero.Name != "first" {
		t.Fatalf("expected first document to win, got %q", s.Hero.Name)
	}
}

func TestSiteSettingsRepoNormalisesLegacyContact(t *testing.T) {
	repo := New().SiteSettingsRepo()
	repo.PutLegacy(models.DefaultSiteSettings(), models.StoredContact{
		Email:    "me@example.com",
		Github:   "https://github.com/me",
		Linkedin: "",
		Twitter:  "https://x.com/me",
	})

	s, err := repo.Find(context.Background())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !s.LegacyContact {
		t.Fatal("expected legacy flag")
	}
	want := []models.SocialLink{
		{Platform: "github", URL: "https://github.com/me"},
		{Platform: "twitter", URL: "https://x.com/me"},
	}
	if len(s.Contact.SocialLinks) != len(want) {
		t.Fatalf("expected %v, got %v", want, s.Contact.SocialLinks)
	}
	for i := range want {
		if s.Contact.SocialLinks[i] != want[i] {
			t.Fatalf("link %d: expected %v, got %v", i, want[i], s.Contact.SocialLinks[i])
		}
	}
}

func TestAdminRepoUniqueEmail(t *testing.T) {
	ctx := context.Background()
	repo := New().AdminRepo()

	if err := repo.Add(ctx, &models.Admin{ID: uuid.New(), Email: "Admin@Example.com"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := repo.Add(ctx, &models.Admin{ID: uuid.New(), Email: "admin@example.com "})
	if !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	a, err := repo.FindByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if a.Email != "admin@example.com" {
		t.Fatalf("expected normalised email, got %q", a.Email)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("expected 1 admin, got %d", n)
	}
}

func TestAdminRepoAddFirstOnlyWhileEmpty(t *testing.T) {
	ctx := context.Background()
	repo := New().AdminRepo()

	if err := repo.AddFirst(ctx, &models.Admin{ID: uuid.New(), Email: " First@Example.com"}); err != nil {
		t.Fatalf("first AddFirst: %v", err)
	}
	err := repo.AddFirst(ctx, &models.Admin{ID: uuid.New(), Email: "second@example.com"})
	if !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("second AddFirst error = %v, want already exists", err)
	}
	if _, err := repo.FindByEmail(ctx, "first@example.com"); err != nil {
		t.Fatalf("first admin not stored under its normalised email: %v", err)
	}
}

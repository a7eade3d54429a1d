package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/memstore"
	"github.com/rpupo63/portfolio-site-backend/models"
)

func strPtr(s string) *string { return &s }

func newTestProjectService() *ProjectService {
	return NewProjectService(memstore.New().ProjectRepo())
}

func TestProjectService_CreateThenGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestProjectService()

	created, err := svc.Create(ctx, models.ProjectPatch{
		Title:       strPtr("Portfolio"),
		Description: strPtr("This site"),
		Tags:        &[]string{"go", "react"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("Create() returned a nil id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Errorf("timestamps not set: %+v", created)
	}

	got, err := svc.Get(ctx, created.ID.String())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Portfolio" || got.Description != "This site" {
		t.Errorf("Get() = %+v, want the created title and description", got)
	}
	if got.Images == nil || len(got.Images) != 0 {
		t.Errorf("Images = %#v, want empty slice", got.Images)
	}
}

func TestProjectService_CreateValidationPersistsNothing(t *testing.T) {
	ctx := context.Background()
	svc := newTestProjectService()

	tests := []struct {
		name  string
		input models.ProjectPatch
	}{
		{name: "empty title", input: models.ProjectPatch{Title: strPtr(""), Description: strPtr("d")}},
		{name: "missing description", input: models.ProjectPatch{Title: strPtr("t")}},
		{name: "whitespace title", input: models.ProjectPatch{Title: strPtr("  \t"), Description: strPtr("d")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := svc.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}

			_, err = svc.Create(ctx, tt.input)
			if !errs.IsValidationError(err) {
				t.Fatalf("Create() error = %v, want validation error", err)
			}

			after, err := svc.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(after) != len(before) {
				t.Errorf("project count changed from %d to %d", len(before), len(after))
			}
		})
	}
}

func TestProjectService_DeleteThenGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestProjectService()

	created, err := svc.Create(ctx, models.ProjectPatch{Title: strPtr("t"), Description: strPtr("d")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, created.ID.String()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err = svc.Get(ctx, created.ID.String())
	if !errs.IsNotFound(err) {
		t.Fatalf("Get() after delete error = %v, want not found", err)
	}

	// Deleting again, or deleting something that never existed, still succeeds.
	for _, id := range []string{created.ID.String(), uuid.NewString(), "not-a-uuid"} {
		if err := svc.Delete(ctx, id); err != nil {
			t.Errorf("Delete(%q) error = %v, want nil", id, err)
		}
	}
}

func TestProjectService_Get(t *testing.T) {
	svc := newTestProjectService()

	tests := []struct {
		name string
		id   string
	}{
		{name: "unknown uuid", id: uuid.NewString()},
		{name: "malformed id", id: "abc"},
		{name: "empty id", id: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(context.Background(), tt.id)
			var apiErr *errs.ApiErr
			if !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
				t.Fatalf("Get() error = %v, want 404", err)
			}
		})
	}
}

func TestProjectService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newTestProjectService()

	created, err := svc.Create(ctx, models.ProjectPatch{
		Title:       strPtr("t"),
		Description: strPtr("d"),
		GithubURL:   strPtr("https://github.com/me/t"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := svc.Update(ctx, created.ID.String(), models.ProjectPatch{
		Title:  strPtr("new"),
		Images: &[]string{"https://img/1.png"},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "new" || updated.Description != "d" || updated.GithubURL != "https://github.com/me/t" {
		t.Errorf("Update() = %+v, want only title and images changed", updated)
	}
	if len(updated.Images) != 1 {
		t.Errorf("Images = %v, want one entry", updated.Images)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed from %v to %v", created.CreatedAt, updated.CreatedAt)
	}

	t.Run("clearing description is rejected", func(t *testing.T) {
		_, err := svc.Update(ctx, created.ID.String(), models.ProjectPatch{Description: strPtr(" ")})
		if !errs.IsInvalidFieldError(err) {
			t.Fatalf("Update() error = %v, want invalid field", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Update(ctx, uuid.NewString(), models.ProjectPatch{Title: strPtr("x")})
		if !errs.IsNotFound(err) {
			t.Fatalf("Update() error = %v, want not found", err)
		}
	})
}

func TestProjectService_ListNeverNil(t *testing.T) {
	projects, err := newTestProjectService().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if projects == nil {
		t.Fatal("List() = nil, want empty slice")
	}
}

type failingProjectStore struct {
	ProjectStore
	err error
}

func (s failingProjectStore) FindAll(context.Context) ([]models.Project, error) {
	return nil, s.err
}

func TestProjectService_StoreFailureIsRetryable(t *testing.T) {
	svc := NewProjectService(failingProjectStore{err: errors.New("i/o timeout")})

	_, err := svc.List(context.Background())
	var apiErr *errs.ApiErr
	if !errors.As(err, &apiErr) {
		t.Fatalf("List() error = %v, want *errs.ApiErr", err)
	}
	if apiErr.StatusCode != 500 || !apiErr.Retryable {
		t.Errorf("List() error status = %d retryable = %v, want 500 and retryable", apiErr.StatusCode, apiErr.Retryable)
	}
}

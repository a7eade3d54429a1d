package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// FindAll returns all projects, newest first
func (r *ProjectRepo) FindAll(ctx context.Context) ([]models.Project, error) {
	var rows []projectRow
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	projects := make([]models.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toModel())
	}
	return projects, nil
}

// FindByID returns a project by its ID. Single-document reads go to the primary so an
// update never starts from a lagging replica.
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var row projectRow
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("project %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	project := row.toModel()
	return &project, nil
}

// Add inserts a new project and copies the stored timestamps back onto it
func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	row := newProjectRow(*project)
	return r.db.WithContext(ctx).Create(&row).Error
}

// Update overwrites every writable column of an existing project
func (r *ProjectRepo) Update(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	p := project.Normalized()

	result := r.db.WithContext(ctx).
		Model(&projectRow{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"title":         p.Title,
			"description":   p.Description,
			"tags":          datatypes.NewJSONSlice(p.Tags),
			"image_url":     p.ImageURL,
			"images":        datatypes.NewJSONSlice(p.Images),
			"github_url":    p.GithubURL,
			"live_demo_url": p.LiveDemoURL,
			"updated_at":    now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("project %s: %w", p.ID, errs.ErrNotFound)
	}
	project.UpdatedAt = now
	return nil
}

// Delete removes a project from the database by id; deleting a missing id is not an error
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&projectRow{}, "id = ?", id).Error
}

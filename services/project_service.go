package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

// ProjectService is the CRUD surface for portfolio projects.
type ProjectService struct {
	store  ProjectStore
	logger zerolog.Logger
}

func NewProjectService(store ProjectStore) *ProjectService {
	return &ProjectService{
		store:  store,
		logger: log.With().Str("serviceName", "projectService").Logger(),
	}
}

// List returns every project, newest first.
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	projects, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "projects", err)
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

// Get returns one project. An id that is not a UUID cannot exist, so it is reported as
// not found rather than as a bad request.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, errs.NewNotFound("project")
	}

	project, err := s.store.FindByID(ctx, projectID)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	return project, nil
}

// Create validates input, assigns a fresh id and persists the project.
func (s *ProjectService) Create(ctx context.Context, input models.ProjectPatch) (*models.Project, error) {
	if err := input.Validate(true); err != nil {
		return nil, err
	}

	project := &models.Project{ID: uuid.New()}
	input.ApplyTo(project)
	*project = project.Normalized()

	if err := s.store.Add(ctx, project); err != nil {
		return nil, errs.NewDatabaseError("create", "project", err)
	}

	s.logger.Info().Str("projectID", project.ID.String()).Msg("project created")
	return project, nil
}

// Update overwrites the fields present in patch.
func (s *ProjectService) Update(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	if err := patch.Validate(false); err != nil {
		return nil, err
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.ApplyTo(project)
	if err := s.store.Update(ctx, project); err != nil {
		return nil, errs.NewDatabaseError("update", "project", err)
	}

	s.logger.Info().Str("projectID", project.ID.String()).Msg("project updated")
	return project, nil
}

// Delete removes a project. Unknown and malformed ids succeed.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	if err := s.store.Delete(ctx, projectID); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return errs.NewDatabaseError("delete", "project", err)
	}

	s.logger.Info().Str("projectID", projectID.String()).Msg("project deleted")
	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/bus"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type projectStore interface {
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string, at time.Time) error
}

// CreateProjectRequest publishes a marketplace listing.
type CreateProjectRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=4000"`
	TechTags    []string `json:"tech_tags" validate:"max=15,dive,max=50"`
	Contact     string   `json:"contact" validate:"required,max=200"`
}

// ProjectService manages the student project marketplace.
type ProjectService struct {
	repo      projectStore
	events    bus.Publisher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewProjectService builds a ProjectService with sane defaults.
func NewProjectService(repo projectStore, events bus.Publisher, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		repo:      repo,
		events:    events,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns listings matching the filter.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	projects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list projects")
	}
	return projects, nil
}

// Create publishes a new listing owned by the authenticated user.
func (s *ProjectService) Create(ctx context.Context, claims *models.JWTClaims, req CreateProjectRequest) (*models.Project, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	now := s.now()
	project := &models.Project{
		Title:       req.Title,
		Description: req.Description,
		TechTags:    req.TechTags,
		Contact:     req.Contact,
		Status:      models.ProjectActive,
		OwnerID:     claims.UserID,
		OwnerName:   claims.FullName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create project")
	}

	s.publishChanged(ctx)
	return project, nil
}

// Get returns a single listing.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load project")
	}
	return project, nil
}

// UpdateProjectRequest edits a listing. Untouched fields keep their
// previous value; only non-nil fields are applied.
type UpdateProjectRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=4000"`
	TechTags    *[]string `json:"tech_tags,omitempty" validate:"omitempty,max=15,dive,max=50"`
	Contact     *string   `json:"contact,omitempty" validate:"omitempty,max=200"`
}

// Update edits a listing. Only the owner or an admin may edit it.
func (s *ProjectService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateProjectRequest) (*models.Project, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	project, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load project")
	}
	if claims.Role != models.RoleAdmin && project.OwnerID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner or an admin can edit a project")
	}

	if req.Title != nil {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.TechTags != nil {
		project.TechTags = *req.TechTags
	}
	if req.Contact != nil {
		project.Contact = *req.Contact
	}
	project.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to update project")
	}

	s.publishChanged(ctx)
	return project, nil
}

// Delete removes a listing. Only the owner or an admin may delete it.
func (s *ProjectService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}

	project, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load project")
	}
	if claims.Role != models.RoleAdmin && project.OwnerID != claims.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner or an admin can delete a project")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to delete project")
	}

	s.publishChanged(ctx)
	return nil
}

// Archive retires a listing. Only the owner or an admin may archive it.
func (s *ProjectService) Archive(ctx context.Context, claims *models.JWTClaims, id string) (*models.Project, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	project, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load project")
	}

	if claims.Role != models.RoleAdmin && project.OwnerID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner or an admin can archive a project")
	}

	if project.Status == models.ProjectArchived {
		return project, nil
	}

	at := s.now()
	if err := s.repo.Archive(ctx, id, at); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to archive project")
	}
	project.Status = models.ProjectArchived
	project.UpdatedAt = at

	s.publishChanged(ctx)
	return project, nil
}

func (s *ProjectService) publishChanged(ctx context.Context) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, bus.Event{Topic: bus.TopicProjects, At: s.now()}); err != nil {
		s.logger.Warn("failed to publish project change event", zap.Error(err))
	}
}

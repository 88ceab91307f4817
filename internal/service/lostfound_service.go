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

type lostItemStore interface {
	List(ctx context.Context, filter models.LostItemFilter) ([]models.LostItem, error)
	Get(ctx context.Context, id string) (*models.LostItem, error)
	Create(ctx context.Context, item *models.LostItem) error
	Resolve(ctx context.Context, id string, at time.Time) error
}

// CreateLostItemRequest reports a lost or found item.
type CreateLostItemRequest struct {
	Kind        models.LostItemKind `json:"kind" validate:"required,oneof=lost found"`
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=2000"`
	Category    string              `json:"category" validate:"required,max=100"`
	Location    string              `json:"location" validate:"max=200"`
	Tags        []string            `json:"tags" validate:"max=10,dive,max=50"`
}

// LostFoundService manages the lost-and-found board.
type LostFoundService struct {
	repo      lostItemStore
	audit     auditLogger
	events    bus.Publisher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLostFoundService builds a LostFoundService with sane defaults.
func NewLostFoundService(repo lostItemStore, audit auditLogger, events bus.Publisher, validate *validator.Validate, logger *zap.Logger) *LostFoundService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LostFoundService{
		repo:      repo,
		audit:     audit,
		events:    events,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns listings matching the filter.
func (s *LostFoundService) List(ctx context.Context, filter models.LostItemFilter) ([]models.LostItem, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list lost items")
	}
	return items, nil
}

// Get returns one listing.
func (s *LostFoundService) Get(ctx context.Context, id string) (*models.LostItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lost item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load lost item")
	}
	return item, nil
}

// Create reports a new listing on behalf of the authenticated user.
func (s *LostFoundService) Create(ctx context.Context, claims *models.JWTClaims, req CreateLostItemRequest) (*models.LostItem, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lost item payload")
	}

	item := &models.LostItem{
		Kind:         req.Kind,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Location:     req.Location,
		Tags:         req.Tags,
		Status:       models.ItemOpen,
		ReportedByID: claims.UserID,
		ReportedBy:   claims.FullName,
		ReportedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create lost item")
	}

	s.publishChanged(ctx)
	return item, nil
}

// Resolve closes a listing. Only the reporter or an admin may resolve it;
// resolving twice is a no-op success.
func (s *LostFoundService) Resolve(ctx context.Context, claims *models.JWTClaims, id string) (*models.LostItem, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	item, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lost item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load lost item")
	}

	if claims.Role != models.RoleAdmin && item.ReportedByID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the reporter or an admin can resolve a listing")
	}

	if item.Status == models.ItemResolved {
		return item, nil
	}

	at := s.now()
	if err := s.repo.Resolve(ctx, id, at); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to resolve lost item")
	}
	item.Status = models.ItemResolved
	item.ResolvedAt = &at

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &claims.UserID,
			Action:     models.AuditActionLostItemResolve,
			Resource:   "lost_item",
			ResourceID: &item.ID,
			NewValues:  []byte(`{"status":"resolved"}`),
		}); err != nil {
			s.logger.Warn("failed to record lost item audit log", zap.Error(err))
		}
	}

	s.publishChanged(ctx)
	return item, nil
}

func (s *LostFoundService) publishChanged(ctx context.Context) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, bus.Event{Topic: bus.TopicLostItems, At: s.now()}); err != nil {
		s.logger.Warn("failed to publish lost item change event", zap.Error(err))
	}
}

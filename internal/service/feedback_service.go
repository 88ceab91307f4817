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

type feedbackStore interface {
	List(ctx context.Context, pendingOnly bool) ([]models.Feedback, error)
	Get(ctx context.Context, id string) (*models.Feedback, error)
	Create(ctx context.Context, item *models.Feedback) error
	MarkReviewed(ctx context.Context, id string, at time.Time) error
}

// SubmitFeedbackRequest files a report-an-issue submission.
type SubmitFeedbackRequest struct {
	Category string `json:"category" validate:"required,max=100"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=4000"`
}

// FeedbackService manages issue reports and their admin review queue.
type FeedbackService struct {
	repo      feedbackStore
	audit     auditLogger
	events    bus.Publisher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFeedbackService builds a FeedbackService with sane defaults.
func NewFeedbackService(repo feedbackStore, audit auditLogger, events bus.Publisher, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{
		repo:      repo,
		audit:     audit,
		events:    events,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit files a new report on behalf of the authenticated user.
func (s *FeedbackService) Submit(ctx context.Context, claims *models.JWTClaims, req SubmitFeedbackRequest) (*models.Feedback, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	item := &models.Feedback{
		Category:    req.Category,
		Subject:     req.Subject,
		Message:     req.Message,
		Status:      models.FeedbackPending,
		SubmittedBy: claims.UserID,
		Submitter:   claims.FullName,
		SubmittedAt: s.now(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create feedback")
	}

	s.publishChanged(ctx)
	return item, nil
}

// List returns submissions for the admin review queue.
func (s *FeedbackService) List(ctx context.Context, claims *models.JWTClaims, pendingOnly bool) ([]models.Feedback, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reviewing feedback requires an admin account")
	}
	items, err := s.repo.List(ctx, pendingOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list feedback")
	}
	return items, nil
}

// Review marks a submission as handled. Admin only; reviewing twice is a
// no-op success.
func (s *FeedbackService) Review(ctx context.Context, claims *models.JWTClaims, id string) (*models.Feedback, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reviewing feedback requires an admin account")
	}

	item, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load feedback")
	}

	if item.Status == models.FeedbackReviewed {
		return item, nil
	}

	at := s.now()
	if err := s.repo.MarkReviewed(ctx, id, at); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to mark feedback reviewed")
	}
	item.Status = models.FeedbackReviewed
	item.ReviewedAt = &at

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &claims.UserID,
			Action:     models.AuditActionFeedbackReview,
			Resource:   "feedback",
			ResourceID: &item.ID,
			NewValues:  []byte(`{"status":"reviewed"}`),
		}); err != nil {
			s.logger.Warn("failed to record feedback audit log", zap.Error(err))
		}
	}

	s.publishChanged(ctx)
	return item, nil
}

func (s *FeedbackService) publishChanged(ctx context.Context) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, bus.Event{Topic: bus.TopicFeedback, At: s.now()}); err != nil {
		s.logger.Warn("failed to publish feedback change event", zap.Error(err))
	}
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/bus"
	"github.com/campushub/campus-api/internal/models"
	"github.com/campushub/campus-api/internal/repository"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

// Occupancy windows are clamped to this range instead of rejected, so a
// sleepy "3" becomes a five minute hold and nobody books a room for a year.
const (
	MinOccupancyMinutes = 5
	MaxOccupancyMinutes = 7 * 24 * 60
)

// MaxReasonLength caps the optional free-text reason on an occupy request.
// Longer reasons are truncated, not rejected.
const MaxReasonLength = 500

type classroomStore interface {
	List(ctx context.Context) ([]models.Classroom, error)
	Get(ctx context.Context, id string) (*models.Classroom, error)
	Occupy(ctx context.Context, params repository.OccupyParams) (*models.Classroom, error)
	Vacate(ctx context.Context, params repository.VacateParams) (*models.Classroom, error)
	ListHistory(ctx context.Context, classroomID string) ([]models.ClassroomHistory, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// occupancyNotifier fans a committed transition out to subscribed browsers.
// Implementations must not block the request path.
type occupancyNotifier interface {
	NotifyOccupancyChange(room models.Classroom, action models.HistoryAction)
}

type transitionRecorder interface {
	RecordTransition(action models.HistoryAction)
}

// ClassroomService implements the occupancy workflow: listing and
// filtering rooms, claiming and releasing them, and reading the transition
// ledger. Writes go through the repository in one transaction; events and
// notifications fire only after the commit succeeds.
type ClassroomService struct {
	repo     classroomStore
	audit    auditLogger
	events   bus.Publisher
	notifier occupancyNotifier
	metrics  transitionRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewClassroomService builds a ClassroomService with sane defaults. The
// notifier and metrics recorder are optional.
func NewClassroomService(
	repo classroomStore,
	audit auditLogger,
	events bus.Publisher,
	notifier occupancyNotifier,
	metrics transitionRecorder,
	logger *zap.Logger,
) *ClassroomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{
		repo:     repo,
		audit:    audit,
		events:   events,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns the filtered rooms together with an availability summary
// computed over the whole campus, not just the filtered subset. Rooms whose
// occupancy window has lapsed are flagged as expired.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) (*models.ClassroomListResult, error) {
	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list classrooms")
	}
	items := FilterClassrooms(rooms, filter)
	now := s.now()
	for i := range items {
		items[i].Expired = items[i].ExpiredAt(now)
	}
	return &models.ClassroomListResult{
		Items:   items,
		Summary: Summarize(rooms),
	}, nil
}

// Get returns a single room, flagged as expired when its occupancy window
// has lapsed.
func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	room, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load classroom")
	}
	room.Expired = room.ExpiredAt(s.now())
	return room, nil
}

// Occupy claims the room for the actor until now plus the clamped duration.
// Claiming an already occupied room succeeds and overwrites the previous
// occupant; last writer wins.
func (s *ClassroomService) Occupy(ctx context.Context, claims *models.JWTClaims, classroomID string, req models.OccupyRequest) (*models.Classroom, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !claims.CanManageOccupancy() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "occupying rooms requires a teacher or admin account")
	}

	now := s.now()
	minutes := clampDurationMinutes(req.DurationMinutes)
	until := now.Add(time.Duration(minutes) * time.Minute)
	reason := sanitizeReason(req.Reason)

	room, err := s.repo.Occupy(ctx, repository.OccupyParams{
		ClassroomID: classroomID,
		ActorID:     claims.UserID,
		ActorName:   claims.FullName,
		Until:       until,
		Reason:      reason,
		Now:         now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to occupy classroom")
	}

	s.afterTransition(ctx, claims, *room, models.HistoryOccupied, models.AuditActionClassroomOccupy, map[string]interface{}{
		"until":  until,
		"reason": reason,
	})
	return room, nil
}

// Vacate releases the room. Vacating a room that is already free succeeds
// and still records a ledger entry.
func (s *ClassroomService) Vacate(ctx context.Context, claims *models.JWTClaims, classroomID string) (*models.Classroom, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !claims.CanManageOccupancy() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "vacating rooms requires a teacher or admin account")
	}

	now := s.now()
	room, err := s.repo.Vacate(ctx, repository.VacateParams{
		ClassroomID: classroomID,
		ActorID:     claims.UserID,
		ActorName:   claims.FullName,
		Now:         now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to vacate classroom")
	}

	s.afterTransition(ctx, claims, *room, models.HistoryVacated, models.AuditActionClassroomVacate, map[string]interface{}{
		"status": "free",
	})
	return room, nil
}

// History returns the room's transition ledger, most recent first.
func (s *ClassroomService) History(ctx context.Context, classroomID string) ([]models.ClassroomHistory, error) {
	if _, err := s.Get(ctx, classroomID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListHistory(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load classroom history")
	}
	return entries, nil
}

// afterTransition performs the post-commit side effects: audit trail,
// change events for both affected collections, push fan-out, and metrics.
// All of them are best effort; the transition itself already succeeded.
func (s *ClassroomService) afterTransition(ctx context.Context, claims *models.JWTClaims, room models.Classroom, action models.HistoryAction, auditAction string, detail map[string]interface{}) {
	if s.audit != nil {
		payload, _ := json.Marshal(detail)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &claims.UserID,
			Action:     auditAction,
			Resource:   "classroom",
			ResourceID: &room.ID,
			NewValues:  payload,
		}); err != nil {
			s.logger.Warn("failed to record occupancy audit log", zap.Error(err))
		}
	}

	if s.events != nil {
		at := s.now()
		for _, topic := range []string{bus.TopicClassrooms, bus.TopicClassroomHistory} {
			if err := s.events.Publish(ctx, bus.Event{Topic: topic, At: at}); err != nil {
				s.logger.Warn("failed to publish change event",
					zap.String("topic", topic), zap.Error(err))
			}
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyOccupancyChange(room, action)
	}
	if s.metrics != nil {
		s.metrics.RecordTransition(action)
	}
}

// sanitizeReason trims the optional reason, drops it when nothing is left,
// and truncates it to MaxReasonLength runes.
func sanitizeReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil
	}
	if runes := []rune(trimmed); len(runes) > MaxReasonLength {
		trimmed = string(runes[:MaxReasonLength])
	}
	return &trimmed
}

func clampDurationMinutes(minutes int) int {
	if minutes < MinOccupancyMinutes {
		return MinOccupancyMinutes
	}
	if minutes > MaxOccupancyMinutes {
		return MaxOccupancyMinutes
	}
	return minutes
}

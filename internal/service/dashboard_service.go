package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:overview"

type dashboardClassroomReader interface {
	List(ctx context.Context) ([]models.Classroom, error)
}

type dashboardCounters interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type openItemCounter interface {
	CountOpen(ctx context.Context) (int, error)
}

type activeProjectCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type pendingFeedbackCounter interface {
	CountPending(ctx context.Context) (int, error)
}

// DashboardOverview is the landing-page payload.
type DashboardOverview struct {
	Classrooms      models.ClassroomSummary `json:"classrooms"`
	OpenLostItems   int                     `json:"open_lost_items"`
	ActiveProjects  int                     `json:"active_projects"`
	PendingFeedback int                     `json:"pending_feedback"`
	GeneratedAt     time.Time               `json:"generated_at"`
}

// DashboardService composes the overview payload from the domain
// repositories, with a short Redis cache in front of the counts.
type DashboardService struct {
	classrooms dashboardClassroomReader
	lostItems  openItemCounter
	projects   activeProjectCounter
	feedback   pendingFeedbackCounter
	cache      dashboardCounters
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService builds a DashboardService. The cache is optional.
func NewDashboardService(
	classrooms dashboardClassroomReader,
	lostItems openItemCounter,
	projects activeProjectCounter,
	feedback pendingFeedbackCounter,
	cache dashboardCounters,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &DashboardService{
		classrooms: classrooms,
		lostItems:  lostItems,
		projects:   projects,
		feedback:   feedback,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Overview returns the cached payload when fresh, otherwise recomputes it.
func (s *DashboardService) Overview(ctx context.Context) (*DashboardOverview, error) {
	if s.cache != nil {
		var cached DashboardOverview
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	rooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load classrooms")
	}

	overview := &DashboardOverview{
		Classrooms:  Summarize(rooms),
		GeneratedAt: s.now(),
	}
	if overview.OpenLostItems, err = s.lostItems.CountOpen(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to count lost items")
	}
	if overview.ActiveProjects, err = s.projects.CountActive(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to count projects")
	}
	if overview.PendingFeedback, err = s.feedback.CountPending(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to count feedback")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, overview, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return overview, nil
}

// Invalidate drops the cached payload so the next read recomputes it.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

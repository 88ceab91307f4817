package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/bus"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type lostItemRepoStub struct {
	items      []models.LostItem
	item       *models.LostItem
	getErr     error
	createErr  error
	resolveErr error
	resolved   []string
}

func (s *lostItemRepoStub) List(_ context.Context, _ models.LostItemFilter) ([]models.LostItem, error) {
	return s.items, nil
}

func (s *lostItemRepoStub) Get(_ context.Context, _ string) (*models.LostItem, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.item, nil
}

func (s *lostItemRepoStub) Create(_ context.Context, item *models.LostItem) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.items = append(s.items, *item)
	return nil
}

func (s *lostItemRepoStub) Resolve(_ context.Context, id string, _ time.Time) error {
	if s.resolveErr != nil {
		return s.resolveErr
	}
	s.resolved = append(s.resolved, id)
	return nil
}

func studentClaims(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleStudent, FullName: "A Student"}
}

func TestCreateLostItemStampsReporter(t *testing.T) {
	repo := &lostItemRepoStub{}
	events := &publisherStub{}
	svc := NewLostFoundService(repo, &auditStub{}, events, nil, nil)

	item, err := svc.Create(context.Background(), studentClaims("user-7"), CreateLostItemRequest{
		Kind:     models.ItemLost,
		Title:    "Blue water bottle",
		Category: "personal",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-7", item.ReportedByID)
	assert.Equal(t, models.ItemOpen, item.Status)
	assert.False(t, item.ReportedAt.IsZero())
	require.Len(t, events.events, 1)
	assert.Equal(t, bus.TopicLostItems, events.events[0].Topic)
}

func TestCreateLostItemRejectsBadKind(t *testing.T) {
	svc := NewLostFoundService(&lostItemRepoStub{}, &auditStub{}, &publisherStub{}, nil, nil)

	_, err := svc.Create(context.Background(), studentClaims("user-7"), CreateLostItemRequest{
		Kind:     "misplaced",
		Title:    "Keys",
		Category: "personal",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveByReporter(t *testing.T) {
	repo := &lostItemRepoStub{
		item: &models.LostItem{ID: "item-1", Status: models.ItemOpen, ReportedByID: "user-7"},
	}
	audit := &auditStub{}
	events := &publisherStub{}
	svc := NewLostFoundService(repo, audit, events, nil, nil)

	item, err := svc.Resolve(context.Background(), studentClaims("user-7"), "item-1")
	require.NoError(t, err)
	assert.Equal(t, models.ItemResolved, item.Status)
	require.NotNil(t, item.ResolvedAt)
	assert.Equal(t, []string{"item-1"}, repo.resolved)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLostItemResolve, audit.logs[0].Action)
	require.Len(t, events.events, 1)
}

func TestResolveByStrangerForbidden(t *testing.T) {
	repo := &lostItemRepoStub{
		item: &models.LostItem{ID: "item-1", Status: models.ItemOpen, ReportedByID: "user-7"},
	}
	svc := NewLostFoundService(repo, &auditStub{}, &publisherStub{}, nil, nil)

	_, err := svc.Resolve(context.Background(), studentClaims("someone-else"), "item-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.resolved)
}

func TestResolveByAdminAllowed(t *testing.T) {
	repo := &lostItemRepoStub{
		item: &models.LostItem{ID: "item-1", Status: models.ItemOpen, ReportedByID: "user-7"},
	}
	svc := NewLostFoundService(repo, &auditStub{}, &publisherStub{}, nil, nil)

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	_, err := svc.Resolve(context.Background(), admin, "item-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"item-1"}, repo.resolved)
}

func TestResolveTwiceIsNoOp(t *testing.T) {
	at := time.Now().UTC()
	repo := &lostItemRepoStub{
		item: &models.LostItem{ID: "item-1", Status: models.ItemResolved, ReportedByID: "user-7", ResolvedAt: &at},
	}
	events := &publisherStub{}
	svc := NewLostFoundService(repo, &auditStub{}, events, nil, nil)

	item, err := svc.Resolve(context.Background(), studentClaims("user-7"), "item-1")
	require.NoError(t, err)
	assert.Equal(t, models.ItemResolved, item.Status)
	assert.Empty(t, repo.resolved)
	assert.Empty(t, events.events)
}

func TestResolveMissingItem(t *testing.T) {
	repo := &lostItemRepoStub{getErr: sql.ErrNoRows}
	svc := NewLostFoundService(repo, &auditStub{}, &publisherStub{}, nil, nil)

	_, err := svc.Resolve(context.Background(), studentClaims("user-7"), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

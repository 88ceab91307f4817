package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/bus"
	"github.com/campushub/campus-api/internal/models"
	"github.com/campushub/campus-api/internal/repository"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type classroomRepoStub struct {
	rooms        []models.Classroom
	room         *models.Classroom
	history      []models.ClassroomHistory
	listErr      error
	getErr       error
	occupyErr    error
	vacateErr    error
	historyErr   error
	occupyParams []repository.OccupyParams
	vacateParams []repository.VacateParams
}

func (s *classroomRepoStub) List(ctx context.Context) ([]models.Classroom, error) {
	return s.rooms, s.listErr
}

func (s *classroomRepoStub) Get(ctx context.Context, id string) (*models.Classroom, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.room, nil
}

func (s *classroomRepoStub) Occupy(ctx context.Context, params repository.OccupyParams) (*models.Classroom, error) {
	s.occupyParams = append(s.occupyParams, params)
	if s.occupyErr != nil {
		return nil, s.occupyErr
	}
	return s.room, nil
}

func (s *classroomRepoStub) Vacate(ctx context.Context, params repository.VacateParams) (*models.Classroom, error) {
	s.vacateParams = append(s.vacateParams, params)
	if s.vacateErr != nil {
		return nil, s.vacateErr
	}
	return s.room, nil
}

func (s *classroomRepoStub) ListHistory(ctx context.Context, classroomID string) ([]models.ClassroomHistory, error) {
	return s.history, s.historyErr
}

type auditStub struct {
	logs []*models.AuditLog
	err  error
}

func (s *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return s.err
}

type publisherStub struct {
	events []bus.Event
	err    error
}

func (s *publisherStub) Publish(ctx context.Context, event bus.Event) error {
	s.events = append(s.events, event)
	return s.err
}

type notifierStub struct {
	calls []models.HistoryAction
}

func (s *notifierStub) NotifyOccupancyChange(room models.Classroom, action models.HistoryAction) {
	s.calls = append(s.calls, action)
}

func strPtr(s string) *string {
	return &s
}

func teacherClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", FullName: "Ms. Rahma", Role: models.RoleTeacher}
}

func newClassroomServiceForTest(repo *classroomRepoStub, audit *auditStub, events *publisherStub, notifier occupancyNotifier) *ClassroomService {
	svc := NewClassroomService(repo, audit, events, notifier, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestClassroomServiceOccupyClampsDuration(t *testing.T) {
	cases := []struct {
		name    string
		minutes int
		want    int
	}{
		{name: "negative", minutes: -10, want: 5},
		{name: "zero", minutes: 0, want: 5},
		{name: "below minimum", minutes: 1, want: 5},
		{name: "at minimum", minutes: 5, want: 5},
		{name: "typical", minutes: 90, want: 90},
		{name: "above maximum", minutes: 50000, want: 10080},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &classroomRepoStub{room: &models.Classroom{ID: "room-1", Status: models.ClassroomOccupied}}
			svc := newClassroomServiceForTest(repo, &auditStub{}, &publisherStub{}, nil)

			_, err := svc.Occupy(context.Background(), teacherClaims(), "room-1", models.OccupyRequest{DurationMinutes: tc.minutes})
			require.NoError(t, err)
			require.Len(t, repo.occupyParams, 1)

			got := repo.occupyParams[0].Until.Sub(repo.occupyParams[0].Now)
			assert.Equal(t, time.Duration(tc.want)*time.Minute, got)
		})
	}
}

func TestClassroomServiceOccupySanitizesReason(t *testing.T) {
	long := strings.Repeat("x", MaxReasonLength+40)
	cases := []struct {
		name   string
		reason *string
		want   *string
	}{
		{name: "absent", reason: nil, want: nil},
		{name: "trimmed", reason: strPtr("  study group  "), want: strPtr("study group")},
		{name: "whitespace only", reason: strPtr("   \t\n"), want: nil},
		{name: "truncated", reason: strPtr(long), want: strPtr(long[:MaxReasonLength])},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &classroomRepoStub{room: &models.Classroom{ID: "room-1", Status: models.ClassroomOccupied}}
			svc := newClassroomServiceForTest(repo, &auditStub{}, &publisherStub{}, nil)

			_, err := svc.Occupy(context.Background(), teacherClaims(), "room-1", models.OccupyRequest{DurationMinutes: 30, Reason: tc.reason})
			require.NoError(t, err)
			require.Len(t, repo.occupyParams, 1)

			got := repo.occupyParams[0].Reason
			if tc.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tc.want, *got)
			}
		})
	}
}

func TestClassroomServiceOccupyRequiresCapability(t *testing.T) {
	repo := &classroomRepoStub{}
	svc := newClassroomServiceForTest(repo, &auditStub{}, &publisherStub{}, nil)

	student := &models.JWTClaims{UserID: "user-9", FullName: "Andi", Role: models.RoleStudent}
	_, err := svc.Occupy(context.Background(), student, "room-1", models.OccupyRequest{DurationMinutes: 30})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Empty(t, repo.occupyParams)

	_, err = svc.Occupy(context.Background(), nil, "room-1", models.OccupyRequest{DurationMinutes: 30})
	appErr = appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestClassroomServiceOccupyMapsMissingRoom(t *testing.T) {
	repo := &classroomRepoStub{occupyErr: sql.ErrNoRows}
	svc := newClassroomServiceForTest(repo, &auditStub{}, &publisherStub{}, nil)

	_, err := svc.Occupy(context.Background(), teacherClaims(), "missing", models.OccupyRequest{DurationMinutes: 30})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClassroomServiceOccupyMapsStorageFailure(t *testing.T) {
	repo := &classroomRepoStub{occupyErr: errors.New("connection refused")}
	events := &publisherStub{}
	svc := newClassroomServiceForTest(repo, &auditStub{}, events, nil)

	_, err := svc.Occupy(context.Background(), teacherClaims(), "room-1", models.OccupyRequest{DurationMinutes: 30})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStorageUnavailable.Code, appErr.Code)
	assert.Empty(t, events.events, "no events on a failed transition")
}

func TestClassroomServiceOccupyEmitsEventsAndAudit(t *testing.T) {
	repo := &classroomRepoStub{room: &models.Classroom{ID: "room-1", Status: models.ClassroomOccupied}}
	audit := &auditStub{}
	events := &publisherStub{}
	notifier := &notifierStub{}
	svc := newClassroomServiceForTest(repo, audit, events, notifier)

	_, err := svc.Occupy(context.Background(), teacherClaims(), "room-1", models.OccupyRequest{DurationMinutes: 30})
	require.NoError(t, err)

	require.Len(t, events.events, 2)
	topics := []string{events.events[0].Topic, events.events[1].Topic}
	assert.Contains(t, topics, bus.TopicClassrooms)
	assert.Contains(t, topics, bus.TopicClassroomHistory)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionClassroomOccupy, audit.logs[0].Action)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, models.HistoryOccupied, notifier.calls[0])
}

func TestClassroomServiceVacateFreeRoomStillSucceeds(t *testing.T) {
	repo := &classroomRepoStub{room: &models.Classroom{ID: "room-1", Status: models.ClassroomFree}}
	events := &publisherStub{}
	svc := newClassroomServiceForTest(repo, &auditStub{}, events, nil)

	room, err := svc.Vacate(context.Background(), teacherClaims(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, models.ClassroomFree, room.Status)
	require.Len(t, repo.vacateParams, 1)
	assert.Len(t, events.events, 2, "transition still recorded and announced")
}

func TestClassroomServiceVacateRequiresCapability(t *testing.T) {
	repo := &classroomRepoStub{}
	svc := newClassroomServiceForTest(repo, &auditStub{}, &publisherStub{}, nil)

	student := &models.JWTClaims{UserID: "user-9", FullName: "Andi", Role: models.RoleStudent}
	_, err := svc.Vacate(context.Background(), student, "room-1")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Empty(t, repo.vacateParams)
}

func TestClassroomServiceHistoryMissingRoom(t *testing.T) {
	repo := &classroomRepoStub{getErr: sql.ErrNoRows}
	svc := newClassroomServiceForTest(repo, &auditStub{}, &publisherStub{}, nil)

	_, err := svc.History(context.Background(), "missing")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClassroomServiceListFiltersAndSummarizes(t *testing.T) {
	repo := &classroomRepoStub{rooms: []models.Classroom{
		{ID: "a", Name: "101", Building: "A", Status: models.ClassroomFree},
		{ID: "b", Name: "102", Building: "A", Status: models.ClassroomOccupied},
		{ID: "c", Name: "201", Building: "B", Status: models.ClassroomFree},
	}}
	svc := newClassroomServiceForTest(repo, &auditStub{}, &publisherStub{}, nil)

	result, err := svc.List(context.Background(), models.ClassroomFilter{Status: models.FilterFree})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, 3, result.Summary.Total)
	assert.Equal(t, 2, result.Summary.Free)
	assert.Equal(t, 67, result.Summary.AvailabilityPercent)
}

func TestClassroomServiceListFlagsLapsedOccupancy(t *testing.T) {
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &classroomRepoStub{rooms: []models.Classroom{
		{ID: "a", Status: models.ClassroomOccupied, OccupiedUntil: &past},
		{ID: "b", Status: models.ClassroomOccupied, OccupiedUntil: &future},
		{ID: "c", Status: models.ClassroomFree},
	}}
	svc := newClassroomServiceForTest(repo, &auditStub{}, &publisherStub{}, nil)

	result, err := svc.List(context.Background(), models.ClassroomFilter{Status: models.FilterAll})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.True(t, result.Items[0].Expired, "lapsed window must be flagged")
	assert.False(t, result.Items[1].Expired)
	assert.False(t, result.Items[2].Expired)
	assert.Equal(t, models.ClassroomOccupied, result.Items[0].Status, "stored status is untouched")
}

func TestClassroomServiceGetFlagsLapsedOccupancy(t *testing.T) {
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &classroomRepoStub{room: &models.Classroom{ID: "room-1", Status: models.ClassroomOccupied, OccupiedUntil: &past}}
	svc := newClassroomServiceForTest(repo, &auditStub{}, &publisherStub{}, nil)

	room, err := svc.Get(context.Background(), "room-1")
	require.NoError(t, err)
	assert.True(t, room.Expired)
	assert.Equal(t, models.ClassroomOccupied, room.Status)
}

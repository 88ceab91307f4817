package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/middleware"
	"github.com/campushub/campus-api/internal/models"
	"github.com/campushub/campus-api/internal/service"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type classroomServiceMock struct {
	listResp     *models.ClassroomListResult
	listErr      error
	getResp      *models.Classroom
	getErr       error
	occupyResp   *models.Classroom
	occupyErr    error
	vacateResp   *models.Classroom
	vacateErr    error
	historyResp  []models.ClassroomHistory
	historyErr   error
	lastFilter   models.ClassroomFilter
	lastOccupy   models.OccupyRequest
	occupyCalled bool
	vacateCalled bool
}

func (m *classroomServiceMock) List(ctx context.Context, filter models.ClassroomFilter) (*models.ClassroomListResult, error) {
	m.lastFilter = filter
	return m.listResp, m.listErr
}

func (m *classroomServiceMock) Get(ctx context.Context, id string) (*models.Classroom, error) {
	return m.getResp, m.getErr
}

func (m *classroomServiceMock) Occupy(ctx context.Context, claims *models.JWTClaims, classroomID string, req models.OccupyRequest) (*models.Classroom, error) {
	m.occupyCalled = true
	m.lastOccupy = req
	return m.occupyResp, m.occupyErr
}

func (m *classroomServiceMock) Vacate(ctx context.Context, claims *models.JWTClaims, classroomID string) (*models.Classroom, error) {
	m.vacateCalled = true
	return m.vacateResp, m.vacateErr
}

func (m *classroomServiceMock) History(ctx context.Context, classroomID string) ([]models.ClassroomHistory, error) {
	return m.historyResp, m.historyErr
}

type exporterMock struct {
	resp *service.ExportResult
	err  error
}

func (m *exporterMock) HistoryExport(ctx context.Context, classroomID string, format service.ExportFormat) (*service.ExportResult, error) {
	return m.resp, m.err
}

func TestClassroomHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &classroomServiceMock{listResp: &models.ClassroomListResult{}}
	handler := NewClassroomHandler(mockSvc, &exporterMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classrooms?status=free&search=lab", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FilterFree, mockSvc.lastFilter.Status)
	assert.Equal(t, "lab", mockSvc.lastFilter.Search)
}

func TestClassroomHandlerOccupy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &classroomServiceMock{occupyResp: &models.Classroom{ID: "room-1", Status: models.ClassroomOccupied}}
	handler := NewClassroomHandler(mockSvc, &exporterMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/classrooms/room-1/occupy", bytes.NewBufferString(`{"duration_minutes":90,"reason":"Physics revision"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "room-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleTeacher})

	handler.Occupy(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.occupyCalled)
	assert.Equal(t, 90, mockSvc.lastOccupy.DurationMinutes)
}

func TestClassroomHandlerOccupyInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &classroomServiceMock{}
	handler := NewClassroomHandler(mockSvc, &exporterMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/classrooms/room-1/occupy", bytes.NewBufferString(`{"duration_minutes":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "room-1"}}

	handler.Occupy(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.occupyCalled)
}

func TestClassroomHandlerVacateForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &classroomServiceMock{vacateErr: appErrors.ErrForbidden}
	handler := NewClassroomHandler(mockSvc, &exporterMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/classrooms/room-1/vacate", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "room-1"}}

	handler.Vacate(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestClassroomHandlerHistoryNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &classroomServiceMock{historyErr: appErrors.ErrNotFound}
	handler := NewClassroomHandler(mockSvc, &exporterMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classrooms/missing/history", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.History(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassroomHandlerExportSetsAttachmentHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &exporterMock{resp: &service.ExportResult{
		FileName:    "history-101-20260820.csv",
		ContentType: "text/csv",
		Data:        []byte("Action,By\n"),
	}}
	handler := NewClassroomHandler(&classroomServiceMock{}, exporter)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classrooms/room-1/history/export?format=csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "room-1"}}

	handler.ExportHistory(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "history-101-20260820.csv")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}

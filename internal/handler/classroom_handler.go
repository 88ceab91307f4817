package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campus-api/internal/middleware"
	"github.com/campushub/campus-api/internal/models"
	"github.com/campushub/campus-api/internal/service"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/response"
)

type classroomService interface {
	List(ctx context.Context, filter models.ClassroomFilter) (*models.ClassroomListResult, error)
	Get(ctx context.Context, id string) (*models.Classroom, error)
	Occupy(ctx context.Context, claims *models.JWTClaims, classroomID string, req models.OccupyRequest) (*models.Classroom, error)
	Vacate(ctx context.Context, claims *models.JWTClaims, classroomID string) (*models.Classroom, error)
	History(ctx context.Context, classroomID string) ([]models.ClassroomHistory, error)
}

type historyExporter interface {
	HistoryExport(ctx context.Context, classroomID string, format service.ExportFormat) (*service.ExportResult, error)
}

// ClassroomHandler exposes classroom occupancy endpoints.
type ClassroomHandler struct {
	service  classroomService
	exporter historyExporter
}

// NewClassroomHandler builds a new handler.
func NewClassroomHandler(svc classroomService, exporter historyExporter) *ClassroomHandler {
	return &ClassroomHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List classrooms
// @Description List classrooms with optional status and search filters plus an availability summary
// @Tags Classrooms
// @Produce json
// @Param status query string false "Occupancy filter: all, free, occupied"
// @Param search query string false "Substring match on room name or building"
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *ClassroomHandler) List(c *gin.Context) {
	filter := models.ClassroomFilter{
		Status: models.StatusFilter(c.DefaultQuery("status", string(models.FilterAll))),
		Search: c.Query("search"),
	}
	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Summary godoc
// @Summary Campus-wide availability summary
// @Tags Classrooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classrooms/summary [get]
func (h *ClassroomHandler) Summary(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), models.ClassroomFilter{Status: models.FilterAll})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Summary, nil)
}

// Get godoc
// @Summary Get one classroom
// @Tags Classrooms
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id} [get]
func (h *ClassroomHandler) Get(c *gin.Context) {
	room, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Occupy godoc
// @Summary Occupy a classroom
// @Description Claim the room for the authenticated teacher or admin for a bounded duration
// @Tags Classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Param payload body models.OccupyRequest true "Occupy payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id}/occupy [post]
func (h *ClassroomHandler) Occupy(c *gin.Context) {
	var req models.OccupyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid occupy payload"))
		return
	}
	room, err := h.service.Occupy(c.Request.Context(), middleware.ClaimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Vacate godoc
// @Summary Vacate a classroom
// @Description Release the room; vacating an already free room is a success
// @Tags Classrooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id}/vacate [post]
func (h *ClassroomHandler) Vacate(c *gin.Context) {
	room, err := h.service.Vacate(c.Request.Context(), middleware.ClaimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// History godoc
// @Summary Classroom transition history
// @Description Append-only occupancy ledger for one room, most recent first
// @Tags Classrooms
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id}/history [get]
func (h *ClassroomHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ExportHistory godoc
// @Summary Export classroom history
// @Description Download the transition ledger as CSV or PDF
// @Tags Classrooms
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id}/history/export [get]
func (h *ClassroomHandler) ExportHistory(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))
	result, err := h.exporter.HistoryExport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.FileName)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

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

type feedbackService interface {
	Submit(ctx context.Context, claims *models.JWTClaims, req service.SubmitFeedbackRequest) (*models.Feedback, error)
	List(ctx context.Context, claims *models.JWTClaims, pendingOnly bool) ([]models.Feedback, error)
	Review(ctx context.Context, claims *models.JWTClaims, id string) (*models.Feedback, error)
}

// FeedbackHandler exposes issue reporting and the admin review queue.
type FeedbackHandler struct {
	service feedbackService
}

// NewFeedbackHandler builds a new handler.
func NewFeedbackHandler(svc feedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Submit godoc
// @Summary Submit feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SubmitFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req service.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	item, err := h.service.Submit(c.Request.Context(), middleware.ClaimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// List godoc
// @Summary List feedback submissions
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param pending query bool false "Only pending submissions"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), middleware.ClaimsFromContext(c), c.Query("pending") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Review godoc
// @Summary Mark feedback as reviewed
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feedback/{id}/review [post]
func (h *FeedbackHandler) Review(c *gin.Context) {
	item, err := h.service.Review(c.Request.Context(), middleware.ClaimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

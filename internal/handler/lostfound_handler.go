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

type lostFoundService interface {
	List(ctx context.Context, filter models.LostItemFilter) ([]models.LostItem, error)
	Get(ctx context.Context, id string) (*models.LostItem, error)
	Create(ctx context.Context, claims *models.JWTClaims, req service.CreateLostItemRequest) (*models.LostItem, error)
	Resolve(ctx context.Context, claims *models.JWTClaims, id string) (*models.LostItem, error)
}

// LostFoundHandler exposes the lost-and-found board.
type LostFoundHandler struct {
	service lostFoundService
}

// NewLostFoundHandler builds a new handler.
func NewLostFoundHandler(svc lostFoundService) *LostFoundHandler {
	return &LostFoundHandler{service: svc}
}

// List godoc
// @Summary List lost and found items
// @Tags LostFound
// @Produce json
// @Param kind query string false "lost or found"
// @Param category query string false "Category filter"
// @Param search query string false "Substring match on title or description"
// @Param open query bool false "Only open listings"
// @Success 200 {object} response.Envelope
// @Router /lost-items [get]
func (h *LostFoundHandler) List(c *gin.Context) {
	filter := models.LostItemFilter{
		Kind:     models.LostItemKind(c.Query("kind")),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		OpenOnly: c.Query("open") == "true",
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get one listing
// @Tags LostFound
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lost-items/{id} [get]
func (h *LostFoundHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Report a lost or found item
// @Tags LostFound
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateLostItemRequest true "Listing payload"
// @Success 201 {object} response.Envelope
// @Router /lost-items [post]
func (h *LostFoundHandler) Create(c *gin.Context) {
	var req service.CreateLostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lost item payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), middleware.ClaimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Resolve godoc
// @Summary Resolve a listing
// @Tags LostFound
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lost-items/{id}/resolve [post]
func (h *LostFoundHandler) Resolve(c *gin.Context) {
	item, err := h.service.Resolve(c.Request.Context(), middleware.ClaimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

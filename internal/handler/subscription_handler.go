package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/response"
)

type subscriptionWriter interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	Delete(ctx context.Context, endpoint string) error
}

// SubscribeRequest registers a browser push subscription for a set of rooms.
type SubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256DH string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
	Classrooms []string `json:"classroom_ids" binding:"required,min=1"`
}

// SubscriptionHandler manages web push registrations.
type SubscriptionHandler struct {
	repo           subscriptionWriter
	vapidPublicKey string
}

// NewSubscriptionHandler builds a new handler.
func NewSubscriptionHandler(repo subscriptionWriter, vapidPublicKey string) *SubscriptionHandler {
	return &SubscriptionHandler{repo: repo, vapidPublicKey: vapidPublicKey}
}

// VAPIDPublicKey godoc
// @Summary VAPID public key
// @Description Key browsers need to create a push subscription
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/vapid-key [get]
func (h *SubscriptionHandler) VAPIDPublicKey(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"public_key": h.vapidPublicKey}, nil)
}

// Subscribe godoc
// @Summary Register a push subscription
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body SubscribeRequest true "Subscription payload"
// @Success 201 {object} response.Envelope
// @Router /notifications/subscriptions [put]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subscription payload"))
		return
	}

	sub := &models.PushSubscription{
		Endpoint:   req.Endpoint,
		P256DH:     req.Keys.P256DH,
		Auth:       req.Keys.Auth,
		Classrooms: req.Classrooms,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.repo.Upsert(c.Request.Context(), sub); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to store subscription"))
		return
	}
	response.Created(c, sub)
}

// Unsubscribe godoc
// @Summary Remove a push subscription
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param endpoint query string true "Subscription endpoint URL"
// @Success 204
// @Router /notifications/subscriptions [delete]
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "endpoint is required"))
		return
	}
	if err := h.repo.Delete(c.Request.Context(), endpoint); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to delete subscription"))
		return
	}
	response.NoContent(c)
}

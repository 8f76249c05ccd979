package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-compass-api/internal/middleware"
	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/internal/service"
	"github.com/noah-isme/course-compass-api/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, session models.Session, filter models.NotificationFilter) (*service.NotificationList, error)
	MarkRead(ctx context.Context, session models.Session, id string) error
	MarkAllRead(ctx context.Context, session models.Session) (int64, error)
}

// NotificationHandler serves the caller's notification feed.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List godoc
// @Summary My notifications
// @Description meta.unread_count carries the number of unread notifications.
// @Tags Notifications
// @Security BearerAuth
// @Produce json
// @Param unread query bool false "Only unread"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	list, err := h.service.List(c.Request.Context(), session, models.NotificationFilter{
		UnreadOnly: unreadOnly,
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "unread_count", list.UnreadCount)
	respondOK(c, list.Items, list.Pagination)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), session, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead godoc
// @Summary Mark every notification read
// @Tags Notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	updated, err := h.service.MarkAllRead(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, gin.H{"updated": updated}, nil)
}

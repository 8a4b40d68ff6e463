package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sorosurance/sorosurance-backend/internal/http/response"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

type NotificationHandler struct {
	notifications services.NotificationService
}

func NewNotificationHandler(notifications services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	notes, err := h.notifications.ListForRequestUser(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, "list_notifications_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"notifications": notes})
}

// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_notification_id", err)
		return
	}
	if err := h.notifications.MarkRead(dbctx.New(c.Request.Context()), noteID); err != nil {
		response.RespondServiceError(c, "mark_read_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

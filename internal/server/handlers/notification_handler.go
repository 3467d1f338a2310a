package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/service/inbox"
	"github.com/mamadbah2/kitchenstock/internal/transport"
)

// StatusSource reports the active transport.
type StatusSource interface {
	Status() transport.Status
}

// NotificationHandler serves the viewer's inbox and the connection indicator.
type NotificationHandler struct {
	inbox  *inbox.Inbox
	status StatusSource
	logger *zap.Logger
}

// NewNotificationHandler constructs the notification HTTP adapter.
func NewNotificationHandler(in *inbox.Inbox, status StatusSource, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{inbox: in, status: status, logger: logger}
}

// List returns notifications filtered by the optional read and type query params.
func (h *NotificationHandler) List(c *gin.Context) {
	var filter models.NotificationFilter
	if raw := c.Query("read"); raw != "" {
		read, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read must be true or false"})
			return
		}
		filter.Read = &read
	}
	filter.Type = c.Query("type")

	c.JSON(http.StatusOK, gin.H{
		"notifications": h.inbox.List(filter),
		"unread":        h.inbox.UnreadCount(),
	})
}

// MarkRead flags one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.inbox.MarkRead(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead flags every notification as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	changed := h.inbox.MarkAllRead()
	c.JSON(http.StatusOK, gin.H{"updated": changed})
}

// Delete removes one notification.
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.inbox.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Connection reports whether events flow over the live or the local transport.
func (h *NotificationHandler) Connection(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Status())
}

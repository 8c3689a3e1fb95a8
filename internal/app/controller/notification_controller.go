package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/bizdir-backend/internal/app/service"
	apperrors "github.com/ikkim/bizdir-backend/internal/errors"
	"github.com/ikkim/bizdir-backend/internal/middleware"
	ws "github.com/ikkim/bizdir-backend/internal/websocket"
)

// NotificationController serves the owner inbox and its realtime channel
type NotificationController struct {
	service  service.NotificationService
	hub      *ws.Hub
	upgrader gorillaws.Upgrader
}

func NewNotificationController(svc service.NotificationService, hub *ws.Hub, allowedOrigins []string) *NotificationController {
	return &NotificationController{
		service:  svc,
		hub:      hub,
		upgrader: ws.NewUpgrader(allowedOrigins),
	}
}

// GetNotifications godoc
// @Summary List notifications
// @Tags notifications
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Param is_read query bool false "read state"
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (ctrl *NotificationController) GetNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	page, pageSize := pageParams(c)

	var isRead *bool
	switch c.Query("is_read") {
	case "true":
		t := true
		isRead = &t
	case "false":
		f := false
		isRead = &f
	}

	notifications, total, unreadCount, err := ctrl.service.GetNotifications(userID, isRead, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "fetch notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":         notifications,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"unread_count": unreadCount,
	})
}

// GetUnreadCount godoc
// @Summary Count unread notifications
// @Tags notifications
// @Security BearerAuth
// @Router /api/v1/notifications/unread-count [get]
func (ctrl *NotificationController) GetUnreadCount(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	count, err := ctrl.service.GetUnreadCount(userID)
	if err != nil {
		respondServiceError(c, err, "count notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkAsRead godoc
// @Summary Mark one notification read
// @Tags notifications
// @Param id path int true "notification ID"
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [patch]
func (ctrl *NotificationController) MarkAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	notification, err := ctrl.service.MarkAsRead(id, userID)
	if err != nil {
		respondServiceError(c, err, "mark notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": notification})
}

// MarkAllAsRead godoc
// @Summary Mark every notification read
// @Tags notifications
// @Security BearerAuth
// @Router /api/v1/notifications/read-all [patch]
func (ctrl *NotificationController) MarkAllAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.service.MarkAllAsRead(userID); err != nil {
		respondServiceError(c, err, "mark notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

// DeleteNotification godoc
// @Summary Delete a notification
// @Tags notifications
// @Param id path int true "notification ID"
// @Security BearerAuth
// @Router /api/v1/notifications/{id} [delete]
func (ctrl *NotificationController) DeleteNotification(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.service.DeleteNotification(id, userID); err != nil {
		respondServiceError(c, err, "delete notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

// Stream upgrades to a websocket that receives new notifications.
// Browsers pass the access token as ?token= since they cannot set headers.
// GET /api/v1/notifications/ws
func (ctrl *NotificationController) Stream(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	// Upgrade writes its own error response
	if _, err := ws.Serve(ctrl.hub, ctrl.upgrader, c.Writer, c.Request, userID); err != nil {
		log.Warn("Failed to upgrade notification stream", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	log.Info("Notification stream connected", map[string]interface{}{
		"user_id": userID,
	})
}

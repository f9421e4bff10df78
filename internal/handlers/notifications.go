package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/models"
	"github.com/onsekiz/backend/internal/util"
)

// GetNotifications lists the viewer's notifications, newest first, and
// marks them all read as a side effect
// GET /api/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var notifications []models.Notification
	err := database.DB.Preload("From").Where("to_id = ?", userID).
		Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		logger.ErrorWithFields("failed to load notifications", err)
		util.RespondInternalError(c, "failed to load notifications")
		return
	}

	// Opening the list counts as reading everything in it
	if err := database.DB.Model(&models.Notification{}).
		Where("to_id = ? AND read = ?", userID, false).
		UpdateColumn("read", true).Error; err != nil {
		logger.WarnWithFields("failed to mark notifications read", err)
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// DeleteAllNotifications clears the viewer's notification list
// DELETE /api/notifications
func (h *Handlers) DeleteAllNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := database.DB.Delete(&models.Notification{}, "to_id = ?", userID).Error; err != nil {
		logger.ErrorWithFields("failed to delete notifications", err)
		util.RespondInternalError(c, "failed to delete notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notifications cleared"})
}

// DeleteNotification removes one notification. 403 when it belongs to
// someone else, 404 when it does not exist.
// DELETE /api/notifications/:id
func (h *Handlers) DeleteNotification(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	notificationID := c.Param("id")

	var notification models.Notification
	if err := database.DB.First(&notification, "id = ?", notificationID).Error; err != nil {
		util.RespondNotFound(c, "notification")
		return
	}
	if notification.ToID != userID {
		util.RespondForbidden(c, "not your notification")
		return
	}

	if err := database.DB.Delete(&notification).Error; err != nil {
		logger.ErrorWithFields("failed to delete notification", err)
		util.RespondInternalError(c, "failed to delete notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
}

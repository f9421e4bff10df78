package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/models"
	"github.com/onsekiz/backend/internal/util"
	"gorm.io/gorm"
)

// PinPost pins a post to the top of its author's profile.
// Any previously pinned post is unpinned in the same transaction, so at
// most one post per author carries the flag.
// POST /api/post/:id/pin
func (h *Handlers) PinPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "you can only pin your own posts")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("user_id = ? AND is_pinned = ?", userID, true).
			UpdateColumn("is_pinned", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("is_pinned", true).Error
	})
	if err != nil {
		logger.ErrorWithFields("failed to pin post", err)
		util.RespondInternalError(c, "failed to pin post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post pinned"})
}

// UnpinPost clears the pin flag
// DELETE /api/post/:id/pin
func (h *Handlers) UnpinPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "you can only unpin your own posts")
		return
	}
	if !post.IsPinned {
		util.RespondBadRequest(c, "post is not pinned")
		return
	}

	if err := database.DB.Model(&post).UpdateColumn("is_pinned", false).Error; err != nil {
		logger.ErrorWithFields("failed to unpin post", err)
		util.RespondInternalError(c, "failed to unpin post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post unpinned"})
}

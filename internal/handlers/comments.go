package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/models"
	"github.com/onsekiz/backend/internal/util"
	"gorm.io/gorm"
)

// CommentRequest is the body for creating or editing a comment
type CommentRequest struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parent_id"`
}

// respondWithPopulatedPost sends the full post shape after a comment
// mutation so clients refresh the thread in one round trip
func respondWithPopulatedPost(c *gin.Context, postID string, status int) {
	post, comments, err := loadPostWithComments(database.DB, postID)
	if err != nil {
		logger.ErrorWithFields("failed to load post after comment change", err)
		util.RespondInternalError(c, "failed to load post")
		return
	}
	c.JSON(status, gin.H{"post": post, "comments": comments})
}

// CreateComment adds a comment, or a reply when parent_id is set.
// Replies attach to top-level comments only; threading is one level deep.
// POST /api/post/:id/comment
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		util.RespondBadRequest(c, "comment cannot be empty")
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	// Recipient of the comment notification: post author for top-level
	// comments, parent comment author for replies
	notifyUserID := post.UserID
	if req.ParentID != nil {
		var parent models.Comment
		if err := database.DB.First(&parent, "id = ?", *req.ParentID).Error; err != nil {
			util.RespondNotFound(c, "parent comment")
			return
		}
		if parent.PostID != postID {
			util.RespondBadRequest(c, "parent comment belongs to a different post")
			return
		}
		if parent.ParentID != nil {
			util.RespondBadRequest(c, "replies cannot be nested")
			return
		}
		notifyUserID = parent.UserID
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   userID,
		Content:  content,
		ParentID: req.ParentID,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
			return err
		}

		if err := createNotification(tx, notifyUserID, userID, models.NotificationComment, &post.ID, &comment.ID); err != nil {
			return err
		}

		mentioned, err := resolveMentions(tx, content, userID)
		if err != nil {
			return err
		}
		return writeCommentMentions(tx, &comment, mentioned)
	})
	if err != nil {
		logger.ErrorWithFields("failed to create comment", err)
		util.RespondInternalError(c, "failed to create comment")
		return
	}

	respondWithPopulatedPost(c, postID, http.StatusCreated)
}

// UpdateComment edits a comment's text. Comment author only.
// PUT /api/post/:id/comment/:commentId
func (h *Handlers) UpdateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")
	commentID := c.Param("commentId")

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		util.RespondBadRequest(c, "comment cannot be empty")
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ? AND post_id = ?", commentID, postID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "you can only edit your own comments")
		return
	}

	now := time.Now()
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&comment).Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
			"edited_at": now,
		}).Error; err != nil {
			return err
		}

		// Recompute mentions the same way post edits do
		var existing []models.CommentMention
		if err := tx.Where("comment_id = ?", comment.ID).Find(&existing).Error; err != nil {
			return err
		}
		existingSet := make(map[string]bool, len(existing))
		for _, m := range existing {
			existingSet[m.MentionedUserID] = true
		}

		mentioned, err := resolveMentions(tx, content, userID)
		if err != nil {
			return err
		}
		newSet := make(map[string]bool, len(mentioned))
		var added []models.User
		for _, u := range mentioned {
			newSet[u.ID] = true
			if !existingSet[u.ID] {
				added = append(added, u)
			}
		}
		for _, m := range existing {
			if !newSet[m.MentionedUserID] {
				if err := tx.Delete(&models.CommentMention{}, "id = ?", m.ID).Error; err != nil {
					return err
				}
			}
		}
		return writeCommentMentions(tx, &comment, added)
	})
	if err != nil {
		logger.ErrorWithFields("failed to update comment", err)
		util.RespondInternalError(c, "failed to update comment")
		return
	}

	respondWithPopulatedPost(c, postID, http.StatusOK)
}

// DeleteComment removes a comment. Allowed for the comment author and for
// the post author moderating their own thread. Replies go with it.
// DELETE /api/post/:id/comment/:commentId
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")
	commentID := c.Param("commentId")

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ? AND post_id = ?", commentID, postID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	if comment.UserID != userID && post.UserID != userID {
		util.RespondForbidden(c, "not allowed to delete this comment")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		ids := []string{comment.ID}
		var replyIDs []string
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", comment.ID).Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		ids = append(ids, replyIDs...)

		if err := tx.Delete(&models.CommentLike{}, "comment_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.CommentMention{}, "comment_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Notification{}, "comment_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Comment{}, "id IN ?", ids).Error; err != nil {
			return err
		}

		removed := len(ids)
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("CASE WHEN comment_count >= ? THEN comment_count - ? ELSE 0 END", removed, removed)).Error
	})
	if err != nil {
		logger.ErrorWithFields("failed to delete comment", err)
		util.RespondInternalError(c, "failed to delete comment")
		return
	}

	respondWithPopulatedPost(c, postID, http.StatusOK)
}

// ToggleCommentLike likes or unlikes a comment. The comment author is
// notified on the first like only.
// POST /api/post/:id/comment/:commentId/like
func (h *Handlers) ToggleCommentLike(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")
	commentID := c.Param("commentId")

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ? AND post_id = ?", commentID, postID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	var liked bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.CommentLike{}, "user_id = ? AND comment_id = ?", userID, commentID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return tx.Model(&models.Comment{}).Where("id = ? AND like_count > 0", commentID).
				UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
		}

		if err := tx.Create(&models.CommentLike{UserID: userID, CommentID: commentID}).Error; err != nil {
			return err
		}
		liked = true
		if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return err
		}

		return upsertNotification(tx, comment.UserID, userID, models.NotificationLike, &comment.PostID, &comment.ID)
	})
	if err != nil {
		logger.ErrorWithFields("failed to toggle comment like", err)
		util.RespondInternalError(c, "failed to toggle comment like")
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

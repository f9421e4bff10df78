package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/models"
	"github.com/onsekiz/backend/internal/util"
	"gorm.io/gorm"
)

// CreatePostRequest is the body for creating a post or quote retweet
type CreatePostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

// CreatePost creates a new post
// POST /api/post
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && req.ImageURL == "" {
		util.RespondBadRequest(c, "post needs text or an image")
		return
	}

	post := models.Post{
		UserID:   userID,
		Content:  content,
		ImageURL: req.ImageURL,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}

		mentioned, err := resolveMentions(tx, content, userID)
		if err != nil {
			return err
		}
		return writePostMentions(tx, &post, mentioned)
	})
	if err != nil {
		logger.ErrorWithFields("failed to create post", err)
		util.RespondInternalError(c, "failed to create post")
		return
	}

	populated, err := loadPostPopulated(database.DB, post.ID)
	if err != nil {
		logger.ErrorWithFields("failed to load created post", err)
		util.RespondInternalError(c, "failed to load post")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": populated})
}

// GetPost returns a single post with its author and comments.
// The response is marked no-store so edits are visible immediately.
// GET /api/post/:id
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")

	post, comments, err := loadPostWithComments(database.DB, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		logger.ErrorWithFields("failed to load post", err)
		util.RespondInternalError(c, "failed to load post")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"post": post, "comments": comments})
}

// UpdatePostRequest is the body for editing a post
type UpdatePostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

// UpdatePost edits a post's content and image. Only newly mentioned users
// are notified; mentions removed by the edit are deleted silently.
// PUT /api/post/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "you can only edit your own posts")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && req.ImageURL == "" {
		util.RespondBadRequest(c, "post needs text or an image")
		return
	}

	oldImageURL := post.ImageURL

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&post).Updates(map[string]interface{}{
			"content":   content,
			"image_url": req.ImageURL,
		}).Error; err != nil {
			return err
		}

		var existing []models.PostMention
		if err := tx.Where("post_id = ?", post.ID).Find(&existing).Error; err != nil {
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
				if err := tx.Delete(&models.PostMention{}, "id = ?", m.ID).Error; err != nil {
					return err
				}
			}
		}

		return writePostMentions(tx, &post, added)
	})
	if err != nil {
		logger.ErrorWithFields("failed to update post", err)
		util.RespondInternalError(c, "failed to update post")
		return
	}

	// Old hosted image is unreferenced now; best-effort cleanup
	if oldImageURL != "" && oldImageURL != req.ImageURL && h.images != nil {
		h.deleteHostedImage(c, oldImageURL)
	}

	populated, err := loadPostPopulated(database.DB, post.ID)
	if err != nil {
		logger.ErrorWithFields("failed to load updated post", err)
		util.RespondInternalError(c, "failed to load post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": populated})
}

// DeletePost removes a post and everything that hangs off it
// DELETE /api/post/:id
func (h *Handlers) DeletePost(c *gin.Context) {
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
		util.RespondForbidden(c, "you can only delete your own posts")
		return
	}

	imageURL := post.ImageURL

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Interaction rows for this post
		if err := tx.Delete(&models.PostLike{}, "post_id = ?", postID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.SavedPost{}, "post_id = ?", postID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.HiddenPost{}, "post_id = ?", postID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.PostMention{}, "post_id = ?", postID).Error; err != nil {
			return err
		}

		// Comments and their likes and mentions
		var commentIDs []string
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Delete(&models.CommentLike{}, "comment_id IN ?", commentIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.CommentMention{}, "comment_id IN ?", commentIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Comment{}, "post_id = ?", postID).Error; err != nil {
				return err
			}
		}

		// Direct retweet shadow posts point at this post and die with it.
		// Quote retweets keep their own content and survive.
		if err := tx.Delete(&models.Post{}, "original_post_id = ? AND is_quote_retweet = ?", postID, false).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Notification{}, "post_id = ?", postID).Error; err != nil {
			return err
		}

		return tx.Delete(&post).Error
	})
	if err != nil {
		logger.ErrorWithFields("failed to delete post", err)
		util.RespondInternalError(c, "failed to delete post")
		return
	}

	if imageURL != "" && h.images != nil {
		h.deleteHostedImage(c, imageURL)
	}

	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

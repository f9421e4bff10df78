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

// ToggleRetweet creates or removes a direct retweet. A direct retweet is
// a contentless shadow post referencing the original; toggling it twice
// leaves no trace.
// POST /api/post/:id/retweet
func (h *Handlers) ToggleRetweet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var original models.Post
	if err := database.DB.First(&original, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var retweeted bool
	var shadowID string
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Post
		err := tx.Where("user_id = ? AND original_post_id = ? AND is_quote_retweet = ?",
			userID, postID, false).First(&existing).Error
		if err == nil {
			retweeted = false
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ? AND retweet_count > 0", postID).
				UpdateColumn("retweet_count", gorm.Expr("retweet_count - 1")).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		shadow := models.Post{
			UserID:         userID,
			OriginalPostID: &original.ID,
		}
		if err := tx.Create(&shadow).Error; err != nil {
			return err
		}
		retweeted = true
		shadowID = shadow.ID

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("retweet_count", gorm.Expr("retweet_count + 1")).Error; err != nil {
			return err
		}

		return upsertNotification(tx, original.UserID, userID, models.NotificationRetweet, &original.ID, nil)
	})
	if err != nil {
		logger.ErrorWithFields("failed to toggle retweet", err)
		util.RespondInternalError(c, "failed to toggle retweet")
		return
	}

	if !retweeted {
		c.JSON(http.StatusOK, gin.H{"retweeted": false})
		return
	}

	populated, err := loadPostPopulated(database.DB, shadowID)
	if err != nil {
		logger.ErrorWithFields("failed to load retweet", err)
		util.RespondInternalError(c, "failed to load retweet")
		return
	}
	c.JSON(http.StatusOK, gin.H{"retweeted": true, "post": populated})
}

// QuoteRetweet creates a quote retweet: a regular post carrying its own
// text or image plus a reference to the original. Quotes are append-only
// and never toggle.
// POST /api/post/:id/quote
func (h *Handlers) QuoteRetweet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && req.ImageURL == "" {
		util.RespondBadRequest(c, "quote retweet needs text or an image")
		return
	}

	var original models.Post
	if err := database.DB.First(&original, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	quote := models.Post{
		UserID:         userID,
		Content:        content,
		ImageURL:       req.ImageURL,
		OriginalPostID: &original.ID,
		IsQuoteRetweet: true,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quote).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("retweet_count", gorm.Expr("retweet_count + 1")).Error; err != nil {
			return err
		}

		if err := upsertNotification(tx, original.UserID, userID, models.NotificationQuoteRetweet, &original.ID, nil); err != nil {
			return err
		}

		mentioned, err := resolveMentions(tx, content, userID)
		if err != nil {
			return err
		}
		return writePostMentions(tx, &quote, mentioned)
	})
	if err != nil {
		logger.ErrorWithFields("failed to create quote retweet", err)
		util.RespondInternalError(c, "failed to create quote retweet")
		return
	}

	populated, err := loadPostPopulated(database.DB, quote.ID)
	if err != nil {
		logger.ErrorWithFields("failed to load quote retweet", err)
		util.RespondInternalError(c, "failed to load quote retweet")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": populated})
}

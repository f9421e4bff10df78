package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/models"
	"github.com/onsekiz/backend/internal/util"
	"gorm.io/gorm"
)

// ToggleLike likes a post, or unlikes it if already liked
// POST /api/post/:id/like
func (h *Handlers) ToggleLike(c *gin.Context) {
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

	var liked bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.PostLike{}, "user_id = ? AND post_id = ?", userID, postID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return tx.Model(&models.Post{}).Where("id = ? AND like_count > 0", postID).
				UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
		}

		if err := tx.Create(&models.PostLike{UserID: userID, PostID: postID}).Error; err != nil {
			return err
		}
		liked = true
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return err
		}

		// One notification per (author, liker, post) across any number of cycles
		return upsertNotification(tx, post.UserID, userID, models.NotificationLike, &post.ID, nil)
	})
	if err != nil {
		logger.ErrorWithFields("failed to toggle like", err)
		util.RespondInternalError(c, "failed to toggle like")
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// ToggleSave bookmarks a post, or removes the bookmark
// POST /api/post/:id/save
func (h *Handlers) ToggleSave(c *gin.Context) {
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

	var saved bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.SavedPost{}, "user_id = ? AND post_id = ?", userID, postID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			saved = false
			return tx.Model(&models.Post{}).Where("id = ? AND save_count > 0", postID).
				UpdateColumn("save_count", gorm.Expr("save_count - 1")).Error
		}

		if err := tx.Create(&models.SavedPost{UserID: userID, PostID: postID}).Error; err != nil {
			return err
		}
		saved = true
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("save_count", gorm.Expr("save_count + 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("failed to toggle save", err)
		util.RespondInternalError(c, "failed to toggle save")
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// HidePost hides a post from the viewer's listings.
// Hiding an already-hidden post is a 400, not an idempotent no-op.
// POST /api/post/:id/hide
func (h *Handlers) HidePost(c *gin.Context) {
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

	var existing models.HiddenPost
	err := database.DB.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
	if err == nil {
		util.RespondBadRequest(c, "post already hidden")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.ErrorWithFields("failed to check hidden post", err)
		util.RespondInternalError(c, "failed to hide post")
		return
	}

	if err := database.DB.Create(&models.HiddenPost{UserID: userID, PostID: postID}).Error; err != nil {
		logger.ErrorWithFields("failed to hide post", err)
		util.RespondInternalError(c, "failed to hide post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post hidden"})
}

// UnhidePost removes a hide. 404 when the post was not hidden.
// DELETE /api/post/:id/hide
func (h *Handlers) UnhidePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	res := database.DB.Delete(&models.HiddenPost{}, "user_id = ? AND post_id = ?", userID, postID)
	if res.Error != nil {
		logger.ErrorWithFields("failed to unhide post", res.Error)
		util.RespondInternalError(c, "failed to unhide post")
		return
	}
	if res.RowsAffected == 0 {
		util.RespondNotFound(c, "hidden post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post unhidden"})
}

// GetLikedPosts lists posts the viewer has liked, newest like first
// GET /api/user/liked
func (h *Handlers) GetLikedPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var likes []models.PostLike
	err := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&likes).Error
	if err != nil {
		logger.ErrorWithFields("failed to load liked posts", err)
		util.RespondInternalError(c, "failed to load liked posts")
		return
	}

	posts := postsByIDs(c, userID, collectPostIDs(likes), false)
	if posts == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetSavedPosts lists the viewer's bookmarks, newest first
// GET /api/user/saved
func (h *Handlers) GetSavedPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var saves []models.SavedPost
	err := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&saves).Error
	if err != nil {
		logger.ErrorWithFields("failed to load saved posts", err)
		util.RespondInternalError(c, "failed to load saved posts")
		return
	}

	ids := make([]string, len(saves))
	for i, s := range saves {
		ids[i] = s.PostID
	}
	posts := postsByIDs(c, userID, ids, false)
	if posts == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetHiddenPosts lists posts the viewer has hidden
// GET /api/user/hidden
func (h *Handlers) GetHiddenPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var hides []models.HiddenPost
	err := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&hides).Error
	if err != nil {
		logger.ErrorWithFields("failed to load hidden posts", err)
		util.RespondInternalError(c, "failed to load hidden posts")
		return
	}

	ids := make([]string, len(hides))
	for i, hp := range hides {
		ids[i] = hp.PostID
	}
	posts := postsByIDs(c, userID, ids, true)
	if posts == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func collectPostIDs(likes []models.PostLike) []string {
	ids := make([]string, len(likes))
	for i, l := range likes {
		ids[i] = l.PostID
	}
	return ids
}

// postsByIDs loads populated posts preserving the order of ids. The feed
// exclusions apply to these listings too: blocked authors always drop out,
// and hidden posts drop out of every list except the hidden list itself.
// Responds with an error and returns nil on failure.
func postsByIDs(c *gin.Context, viewerID string, ids []string, includeHidden bool) []models.Post {
	if len(ids) == 0 {
		return []models.Post{}
	}

	query := database.DB.Preload("User").Preload("OriginalPost").Preload("OriginalPost.User").
		Where("id IN ?", ids)
	var err error
	if includeHidden {
		query, err = applyBlockExclusion(query, viewerID)
	} else {
		query, err = applyFeedExclusions(query, viewerID)
	}
	if err != nil {
		logger.ErrorWithFields("failed to load posts", err)
		util.RespondInternalError(c, "failed to load posts")
		return nil
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		logger.ErrorWithFields("failed to load posts", err)
		util.RespondInternalError(c, "failed to load posts")
		return nil
	}

	byID := make(map[string]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]models.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

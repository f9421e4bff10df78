package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/models"
	"github.com/onsekiz/backend/internal/util"
	"gorm.io/gorm"
)

func feedPreloads(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("OriginalPost").Preload("OriginalPost.User")
}

// GetGlobalFeed returns the paginated firehose, newest first, minus the
// viewer's hidden posts and anyone in a block relation with the viewer
// GET /api/post/feed
func (h *Handlers) GetGlobalFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, limit, skip := paginationParams(c)

	query := database.DB.Model(&models.Post{})
	query, err := applyFeedExclusions(query, userID)
	if err != nil {
		logger.ErrorWithFields("failed to compute feed exclusions", err)
		util.RespondInternalError(c, "failed to load feed")
		return
	}
	// Reusable session: the same conditions feed both Count and Find
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithFields("failed to count feed", err)
		util.RespondInternalError(c, "failed to load feed")
		return
	}

	var posts []models.Post
	err = feedPreloads(query).
		Order("created_at DESC").
		Limit(limit).Offset(skip).
		Find(&posts).Error
	if err != nil {
		logger.ErrorWithFields("failed to load feed", err)
		util.RespondInternalError(c, "failed to load feed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":    posts,
		"page":     page,
		"limit":    limit,
		"total":    total,
		"has_more": int64(skip+len(posts)) < total,
	})
}

// GetFollowingFeed returns every post from accounts the viewer follows,
// newest first. Deliberately unpaginated; clients get the full set.
// GET /api/post/feed/following
func (h *Handlers) GetFollowingFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var followedIDs []string
	err := database.DB.Model(&models.Follow{}).Where("follower_id = ?", userID).
		Pluck("followed_id", &followedIDs).Error
	if err != nil {
		logger.ErrorWithFields("failed to load following set", err)
		util.RespondInternalError(c, "failed to load feed")
		return
	}
	if len(followedIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"posts": []models.Post{}})
		return
	}

	query := database.DB.Model(&models.Post{}).Where("user_id IN ?", followedIDs)
	query, err = applyFeedExclusions(query, userID)
	if err != nil {
		logger.ErrorWithFields("failed to compute feed exclusions", err)
		util.RespondInternalError(c, "failed to load feed")
		return
	}

	var posts []models.Post
	err = feedPreloads(query).Order("created_at DESC").Find(&posts).Error
	if err != nil {
		logger.ErrorWithFields("failed to load following feed", err)
		util.RespondInternalError(c, "failed to load feed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetUserPosts lists a user's posts, pinned post first, then recency
// GET /api/user/:username/posts
func (h *Handlers) GetUserPosts(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	username := c.Param("username")

	var author models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", username).First(&author).Error
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	query := database.DB.Model(&models.Post{}).Where("user_id = ?", author.ID)
	query, err = applyFeedExclusions(query, viewerID)
	if err != nil {
		logger.ErrorWithFields("failed to compute feed exclusions", err)
		util.RespondInternalError(c, "failed to load posts")
		return
	}

	var posts []models.Post
	err = feedPreloads(query).
		Order("is_pinned DESC").Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		logger.ErrorWithFields("failed to load user posts", err)
		util.RespondInternalError(c, "failed to load posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// SearchPosts runs a case-insensitive substring search over post content
// with the same exclusions and pagination as the global feed
// GET /api/post/search?q=
func (h *Handlers) SearchPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		util.RespondBadRequest(c, "search query is required")
		return
	}
	page, limit, skip := paginationParams(c)

	pattern := "%" + strings.ToLower(q) + "%"
	query := database.DB.Model(&models.Post{}).Where("LOWER(content) LIKE ?", pattern)
	query, err := applyFeedExclusions(query, userID)
	if err != nil {
		logger.ErrorWithFields("failed to compute feed exclusions", err)
		util.RespondInternalError(c, "failed to search posts")
		return
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithFields("failed to count search results", err)
		util.RespondInternalError(c, "failed to search posts")
		return
	}

	var posts []models.Post
	err = feedPreloads(query).
		Order("created_at DESC").
		Limit(limit).Offset(skip).
		Find(&posts).Error
	if err != nil {
		logger.ErrorWithFields("failed to search posts", err)
		util.RespondInternalError(c, "failed to search posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":    posts,
		"page":     page,
		"limit":    limit,
		"total":    total,
		"has_more": int64(skip+len(posts)) < total,
	})
}

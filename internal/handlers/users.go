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

const suggestedUserCount = 5

// GetProfile returns a user's public profile plus the viewer's relation
// to them (following / blocked)
// GET /api/user/:username
func (h *Handlers) GetProfile(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	username := c.Param("username")

	var user models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var followCount int64
	database.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", viewerID, user.ID).
		Count(&followCount)

	var blockCount int64
	database.DB.Model(&models.UserBlock{}).
		Where("blocker_id = ? AND blocked_id = ?", viewerID, user.ID).
		Count(&blockCount)

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"is_following": followCount > 0,
		"is_blocked":   blockCount > 0,
	})
}

// UpdateProfileRequest is the body for profile edits. Pointer fields
// distinguish "not sent" from "clear this".
type UpdateProfileRequest struct {
	Username        *string `json:"username"`
	DisplayName     *string `json:"display_name"`
	Bio             *string `json:"bio"`
	Link            *string `json:"link"`
	ProfileImageURL *string `json:"profile_image_url"`
	CoverImageURL   *string `json:"cover_image_url"`
}

// UpdateProfile edits the viewer's own profile
// PUT /api/user/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := make(map[string]interface{})

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if len(username) < 3 || len(username) > 30 {
			util.RespondValidationError(c, "username", "username must be 3-30 characters")
			return
		}
		if !strings.EqualFold(username, user.Username) {
			var count int64
			database.DB.Model(&models.User{}).
				Where("LOWER(username) = LOWER(?) AND id != ?", username, user.ID).
				Count(&count)
			if count > 0 {
				util.RespondBadRequest(c, "username already taken")
				return
			}
		}
		updates["username"] = username
	}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" || len(name) > 50 {
			util.RespondValidationError(c, "display_name", "display name must be 1-50 characters")
			return
		}
		updates["display_name"] = name
	}
	if req.Bio != nil {
		updates["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.Link != nil {
		updates["link"] = strings.TrimSpace(*req.Link)
	}

	oldProfileImage := user.ProfileImageURL
	oldCoverImage := user.CoverImageURL
	if req.ProfileImageURL != nil {
		updates["profile_image_url"] = *req.ProfileImageURL
	}
	if req.CoverImageURL != nil {
		updates["cover_image_url"] = *req.CoverImageURL
	}

	if len(updates) == 0 {
		util.RespondBadRequest(c, "nothing to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		logger.ErrorWithFields("failed to update profile", err)
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	if req.ProfileImageURL != nil && oldProfileImage != "" && oldProfileImage != *req.ProfileImageURL && h.images != nil {
		h.deleteHostedImage(c, oldProfileImage)
	}
	if req.CoverImageURL != nil && oldCoverImage != "" && oldCoverImage != *req.CoverImageURL && h.images != nil {
		h.deleteHostedImage(c, oldCoverImage)
	}

	var updated models.User
	if err := database.DB.First(&updated, "id = ?", user.ID).Error; err != nil {
		logger.ErrorWithFields("failed to reload profile", err)
		util.RespondInternalError(c, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// ToggleFollow follows a user, or unfollows if already following. The
// follow row and both cached counters move in one transaction. A fresh
// follow notifies the target every time; unfollowing never does.
// POST /api/user/:username/follow
func (h *Handlers) ToggleFollow(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	username := c.Param("username")

	var target models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", username).First(&target).Error
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}
	if target.ID == viewerID {
		util.RespondBadRequest(c, "cannot follow yourself")
		return
	}

	var following bool
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Follow{}, "follower_id = ? AND followed_id = ?", viewerID, target.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			following = false
			if err := tx.Model(&models.User{}).Where("id = ? AND following_count > 0", viewerID).
				UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ? AND follower_count > 0", target.ID).
				UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error
		}

		if err := tx.Create(&models.Follow{FollowerID: viewerID, FollowedID: target.ID}).Error; err != nil {
			return err
		}
		following = true
		if err := tx.Model(&models.User{}).Where("id = ?", viewerID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", target.ID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}

		return createNotification(tx, target.ID, viewerID, models.NotificationFollow, nil, nil)
	})
	if err != nil {
		logger.ErrorWithFields("failed to toggle follow", err)
		util.RespondInternalError(c, "failed to toggle follow")
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": following})
}

// ToggleBlock blocks a user, or unblocks if already blocked. Blocking
// also severs any follow edges between the pair in both directions.
// POST /api/user/:username/block
func (h *Handlers) ToggleBlock(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	username := c.Param("username")

	var target models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", username).First(&target).Error
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}
	if target.ID == viewerID {
		util.RespondBadRequest(c, "cannot block yourself")
		return
	}

	var blocked bool
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.UserBlock{}, "blocker_id = ? AND blocked_id = ?", viewerID, target.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			blocked = false
			return nil
		}

		if err := tx.Create(&models.UserBlock{BlockerID: viewerID, BlockedID: target.ID}).Error; err != nil {
			return err
		}
		blocked = true

		// Severed follow edges must also fix the cached counters
		pairs := [][2]string{{viewerID, target.ID}, {target.ID, viewerID}}
		for _, p := range pairs {
			res := tx.Delete(&models.Follow{}, "follower_id = ? AND followed_id = ?", p[0], p[1])
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				if err := tx.Model(&models.User{}).Where("id = ? AND following_count > 0", p[0]).
					UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.User{}).Where("id = ? AND follower_count > 0", p[1]).
					UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		logger.ErrorWithFields("failed to toggle block", err)
		util.RespondInternalError(c, "failed to toggle block")
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocked": blocked})
}

// GetSuggestedUsers returns a random sample of accounts the viewer does
// not follow and has no block relation with
// GET /api/user/suggested
func (h *Handlers) GetSuggestedUsers(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var followedIDs []string
	if err := database.DB.Model(&models.Follow{}).Where("follower_id = ?", viewerID).
		Pluck("followed_id", &followedIDs).Error; err != nil {
		logger.ErrorWithFields("failed to load following set", err)
		util.RespondInternalError(c, "failed to load suggestions")
		return
	}
	blockedIDs, err := blockedUserIDs(database.DB, viewerID)
	if err != nil {
		logger.ErrorWithFields("failed to load blocked set", err)
		util.RespondInternalError(c, "failed to load suggestions")
		return
	}

	exclude := append([]string{viewerID}, followedIDs...)
	exclude = append(exclude, blockedIDs...)

	var users []models.User
	err = database.DB.Where("id NOT IN ?", exclude).
		Order("RANDOM()").
		Limit(suggestedUserCount).
		Find(&users).Error
	if err != nil {
		logger.ErrorWithFields("failed to load suggested users", err)
		util.RespondInternalError(c, "failed to load suggestions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetFollowers lists accounts following the given user
// GET /api/user/:username/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	username := c.Param("username")

	user, err := userByUsername(username)
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var follows []models.Follow
	err = database.DB.Preload("Follower").Where("followed_id = ?", user.ID).
		Order("created_at DESC").Find(&follows).Error
	if err != nil {
		logger.ErrorWithFields("failed to load followers", err)
		util.RespondInternalError(c, "failed to load followers")
		return
	}

	users := make([]models.User, len(follows))
	for i, f := range follows {
		users[i] = f.Follower
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetFollowing lists accounts the given user follows
// GET /api/user/:username/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	username := c.Param("username")

	user, err := userByUsername(username)
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var follows []models.Follow
	err = database.DB.Preload("Followed").Where("follower_id = ?", user.ID).
		Order("created_at DESC").Find(&follows).Error
	if err != nil {
		logger.ErrorWithFields("failed to load following", err)
		util.RespondInternalError(c, "failed to load following")
		return
	}

	users := make([]models.User, len(follows))
	for i, f := range follows {
		users[i] = f.Followed
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func userByUsername(username string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

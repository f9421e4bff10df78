package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/models"
	"github.com/onsekiz/backend/internal/util"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// paginationParams reads page/limit query params with sane bounds
func paginationParams(c *gin.Context) (page, limit, skip int) {
	page = util.ParseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit = util.ParseInt(c.Query("limit"), defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	skip = (page - 1) * limit
	return page, limit, skip
}

// blockedUserIDs returns every user blocked by or blocking the viewer.
// Blocks are stored one-way; feed reads enforce them in both directions.
func blockedUserIDs(db *gorm.DB, viewerID string) ([]string, error) {
	var blocks []models.UserBlock
	if err := db.Where("blocker_id = ? OR blocked_id = ?", viewerID, viewerID).Find(&blocks).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, b := range blocks {
		other := b.BlockedID
		if other == viewerID {
			other = b.BlockerID
		}
		if !seen[other] {
			seen[other] = true
			ids = append(ids, other)
		}
	}
	return ids, nil
}

// hiddenPostIDs returns the posts the viewer has hidden
func hiddenPostIDs(db *gorm.DB, viewerID string) ([]string, error) {
	var ids []string
	err := db.Model(&models.HiddenPost{}).Where("user_id = ?", viewerID).Pluck("post_id", &ids).Error
	return ids, err
}

// applyBlockExclusion filters out posts authored by anyone in a block
// relation with the viewer. An empty slice must not produce a NOT IN
// clause, so the filter is added conditionally.
func applyBlockExclusion(query *gorm.DB, viewerID string) (*gorm.DB, error) {
	blocked, err := blockedUserIDs(database.DB, viewerID)
	if err != nil {
		return nil, err
	}
	if len(blocked) > 0 {
		query = query.Where("user_id NOT IN ?", blocked)
	}
	return query, nil
}

// applyFeedExclusions adds the block filter plus the viewer's hidden posts.
// Every post listing routes through one of these two helpers.
func applyFeedExclusions(query *gorm.DB, viewerID string) (*gorm.DB, error) {
	query, err := applyBlockExclusion(query, viewerID)
	if err != nil {
		return nil, err
	}
	hidden, err := hiddenPostIDs(database.DB, viewerID)
	if err != nil {
		return nil, err
	}
	if len(hidden) > 0 {
		query = query.Where("id NOT IN ?", hidden)
	}
	return query, nil
}

// loadPostPopulated fetches a post with its author and, for retweets,
// the original post and its author
func loadPostPopulated(db *gorm.DB, postID string) (*models.Post, error) {
	var post models.Post
	err := db.Preload("User").Preload("OriginalPost").Preload("OriginalPost.User").
		First(&post, "id = ?", postID).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// loadPostWithComments returns the fully populated post: author, original,
// top-level comments with authors, and each comment's replies with authors.
// Comment-mutating endpoints respond with this shape so clients refresh in
// one round trip.
func loadPostWithComments(db *gorm.DB, postID string) (*models.Post, []models.Comment, error) {
	post, err := loadPostPopulated(db, postID)
	if err != nil {
		return nil, nil, err
	}

	var comments []models.Comment
	err = db.Preload("User").Preload("Replies", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC")
	}).Preload("Replies.User").
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, nil, err
	}
	return post, comments, nil
}

// resolveMentions parses @mentions out of content and resolves them to
// user rows. The author is never included; unknown usernames are dropped.
func resolveMentions(db *gorm.DB, content, authorID string) ([]models.User, error) {
	usernames := util.ExtractMentions(content)
	if len(usernames) == 0 {
		return nil, nil
	}

	var users []models.User
	err := db.Where("LOWER(username) IN ?", usernames).Find(&users).Error
	if err != nil {
		return nil, err
	}

	filtered := users[:0]
	for _, u := range users {
		if u.ID != authorID {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

// upsertNotification creates a notification unless one with the same
// (to, from, type, post, comment) key already exists. Toggle actions route
// through this so repeated cycles never spam the recipient. Nil references
// must match IS NULL explicitly, otherwise a post like and a comment like
// on the same post would collapse into one row.
func upsertNotification(tx *gorm.DB, toID, fromID string, nType models.NotificationType, postID, commentID *string) error {
	if toID == fromID {
		return nil
	}

	query := tx.Where("to_id = ? AND from_id = ? AND type = ?", toID, fromID, nType)
	if postID != nil {
		query = query.Where("post_id = ?", *postID)
	} else {
		query = query.Where("post_id IS NULL")
	}
	if commentID != nil {
		query = query.Where("comment_id = ?", *commentID)
	} else {
		query = query.Where("comment_id IS NULL")
	}
	return query.FirstOrCreate(&models.Notification{
		ToID:      toID,
		FromID:    fromID,
		Type:      nType,
		PostID:    postID,
		CommentID: commentID,
	}).Error
}

// createNotification unconditionally creates a notification row.
// Used for actions that should notify every time they happen.
func createNotification(tx *gorm.DB, toID, fromID string, nType models.NotificationType, postID, commentID *string) error {
	if toID == fromID {
		return nil
	}

	return tx.Create(&models.Notification{
		ToID:      toID,
		FromID:    fromID,
		Type:      nType,
		PostID:    postID,
		CommentID: commentID,
	}).Error
}

// writePostMentions records mention rows and notifies each mentioned user
func writePostMentions(tx *gorm.DB, post *models.Post, mentioned []models.User) error {
	for i := range mentioned {
		m := models.PostMention{PostID: post.ID, MentionedUserID: mentioned[i].ID}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		if err := createNotification(tx, mentioned[i].ID, post.UserID, models.NotificationMention, &post.ID, nil); err != nil {
			return err
		}
	}
	return nil
}

// writeCommentMentions records mention rows and notifies each mentioned user
func writeCommentMentions(tx *gorm.DB, comment *models.Comment, mentioned []models.User) error {
	for i := range mentioned {
		m := models.CommentMention{CommentID: comment.ID, MentionedUserID: mentioned[i].ID}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		if err := createNotification(tx, mentioned[i].ID, comment.UserID, models.NotificationMention, &comment.PostID, &comment.ID); err != nil {
			return err
		}
	}
	return nil
}

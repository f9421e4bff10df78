package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Initialize("error", "/tmp/onsekiz-test.log")
}

// setupTestDB wires an isolated in-memory database into the package-level
// handle for the duration of one test
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.UserBlock{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.SavedPost{},
		&models.HiddenPost{},
		&models.CommentLike{},
		&models.PostMention{},
		&models.CommentMention{},
		&models.Notification{},
	)
	require.NoError(t, err)

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		database.DB = prev
	})
}

// testAuth injects the acting user the way the session middleware would
func testAuth(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// newTestRouter builds the API surface with authentication stubbed to the
// given user
func newTestRouter(user *models.User) *gin.Engine {
	h := NewHandlers(nil)
	router := gin.New()

	api := router.Group("/api", testAuth(user))

	post := api.Group("/post")
	post.POST("", h.CreatePost)
	post.GET("/feed", h.GetGlobalFeed)
	post.GET("/feed/following", h.GetFollowingFeed)
	post.GET("/search", h.SearchPosts)
	post.GET("/:id", h.GetPost)
	post.PUT("/:id", h.UpdatePost)
	post.DELETE("/:id", h.DeletePost)
	post.POST("/:id/like", h.ToggleLike)
	post.POST("/:id/save", h.ToggleSave)
	post.POST("/:id/hide", h.HidePost)
	post.DELETE("/:id/hide", h.UnhidePost)
	post.POST("/:id/pin", h.PinPost)
	post.DELETE("/:id/pin", h.UnpinPost)
	post.POST("/:id/retweet", h.ToggleRetweet)
	post.POST("/:id/quote", h.QuoteRetweet)
	post.POST("/:id/comment", h.CreateComment)
	post.PUT("/:id/comment/:commentId", h.UpdateComment)
	post.DELETE("/:id/comment/:commentId", h.DeleteComment)
	post.POST("/:id/comment/:commentId/like", h.ToggleCommentLike)

	userRoutes := api.Group("/user")
	userRoutes.PUT("/profile", h.UpdateProfile)
	userRoutes.GET("/suggested", h.GetSuggestedUsers)
	userRoutes.GET("/liked", h.GetLikedPosts)
	userRoutes.GET("/saved", h.GetSavedPosts)
	userRoutes.GET("/hidden", h.GetHiddenPosts)
	userRoutes.GET("/:username", h.GetProfile)
	userRoutes.GET("/:username/posts", h.GetUserPosts)
	userRoutes.GET("/:username/followers", h.GetFollowers)
	userRoutes.GET("/:username/following", h.GetFollowing)
	userRoutes.POST("/:username/follow", h.ToggleFollow)
	userRoutes.POST("/:username/block", h.ToggleBlock)

	notifications := api.Group("/notifications")
	notifications.GET("", h.GetNotifications)
	notifications.DELETE("", h.DeleteAllNotifications)
	notifications.DELETE("/:id", h.DeleteNotification)

	return router
}

// createTestUser inserts a user with sensible defaults
func createTestUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		DisplayName: username,
		Email:       username + "@example.com",
	}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

// createTestPost inserts a post authored by the given user
func createTestPost(t *testing.T, author *models.User, content string) *models.Post {
	t.Helper()
	post := &models.Post{UserID: author.ID, Content: content}
	require.NoError(t, database.DB.Create(post).Error)
	return post
}

// doJSON performs a request with an optional JSON body and returns the
// recorder plus the decoded response object
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func countNotifications(t *testing.T, toID string, nType models.NotificationType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, database.DB.Model(&models.Notification{}).
		Where("to_id = ? AND type = ?", toID, nType).Count(&count).Error)
	return count
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	router := newTestRouter(alice)

	t.Run("rejects empty post", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/post", map[string]string{"content": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("creates a text post", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/api/post", map[string]string{"content": "hello world"})
		require.Equal(t, http.StatusCreated, w.Code)
		post := resp["post"].(map[string]interface{})
		assert.Equal(t, "hello world", post["content"])
		assert.Equal(t, alice.ID, post["user_id"])
	})

	t.Run("image-only post is allowed", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/post", map[string]string{
			"image_url": "https://images.example.com/x.jpg",
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestCreatePostMentions(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	router := newTestRouter(alice)

	w, _ := doJSON(t, router, http.MethodPost, "/api/post", map[string]string{"content": "hello @bob"})
	require.Equal(t, http.StatusCreated, w.Code)

	assert.EqualValues(t, 1, countNotifications(t, bob.ID, models.NotificationMention))

	var mentions []models.PostMention
	require.NoError(t, database.DB.Find(&mentions).Error)
	require.Len(t, mentions, 1)
	assert.Equal(t, bob.ID, mentions[0].MentionedUserID)
}

func TestCreatePostMentionRules(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	router := newTestRouter(alice)

	// Self-mentions and unknown usernames resolve to nothing
	w, _ := doJSON(t, router, http.MethodPost, "/api/post", map[string]string{
		"content": "cc @alice and @nosuchuser",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, database.DB.Model(&models.PostMention{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestUpdatePostMentionDelta(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	carol := createTestUser(t, "carol")
	router := newTestRouter(alice)

	_, resp := doJSON(t, router, http.MethodPost, "/api/post", map[string]string{"content": "hi @bob"})
	postID := resp["post"].(map[string]interface{})["id"].(string)

	require.EqualValues(t, 1, countNotifications(t, bob.ID, models.NotificationMention))

	// Edit swaps bob for carol; only carol gets a new notification
	w, _ := doJSON(t, router, http.MethodPut, "/api/post/"+postID, map[string]string{"content": "hi @carol"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.EqualValues(t, 1, countNotifications(t, bob.ID, models.NotificationMention))
	assert.EqualValues(t, 1, countNotifications(t, carol.ID, models.NotificationMention))

	var mentions []models.PostMention
	require.NoError(t, database.DB.Where("post_id = ?", postID).Find(&mentions).Error)
	require.Len(t, mentions, 1)
	assert.Equal(t, carol.ID, mentions[0].MentionedUserID)

	// Editing again with the same mention does not re-notify
	w, _ = doJSON(t, router, http.MethodPut, "/api/post/"+postID, map[string]string{"content": "hey @carol!"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, countNotifications(t, carol.ID, models.NotificationMention))
}

func TestUpdatePostAuthorization(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	post := createTestPost(t, alice, "mine")

	bobRouter := newTestRouter(bob)
	w, _ := doJSON(t, bobRouter, http.MethodPut, "/api/post/"+post.ID, map[string]string{"content": "hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetPostNoStore(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	post := createTestPost(t, alice, "fresh")
	router := newTestRouter(alice)

	w, _ := doJSON(t, router, http.MethodGet, "/api/post/"+post.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w, _ = doJSON(t, router, http.MethodGet, "/api/post/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePostCascades(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	post := createTestPost(t, alice, "doomed")

	bobRouter := newTestRouter(bob)
	aliceRouter := newTestRouter(alice)

	// Bob interacts with the post in every way
	doJSON(t, bobRouter, http.MethodPost, "/api/post/"+post.ID+"/like", nil)
	doJSON(t, bobRouter, http.MethodPost, "/api/post/"+post.ID+"/save", nil)
	doJSON(t, bobRouter, http.MethodPost, "/api/post/"+post.ID+"/comment", map[string]string{"content": "rip"})
	doJSON(t, bobRouter, http.MethodPost, "/api/post/"+post.ID+"/retweet", nil)

	// A non-author cannot delete
	w, _ := doJSON(t, bobRouter, http.MethodDelete, "/api/post/"+post.ID, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, aliceRouter, http.MethodDelete, "/api/post/"+post.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var likes, saves, comments, notifs, shadows int64
	database.DB.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likes)
	database.DB.Model(&models.SavedPost{}).Where("post_id = ?", post.ID).Count(&saves)
	database.DB.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments)
	database.DB.Model(&models.Notification{}).Where("post_id = ?", post.ID).Count(&notifs)
	database.DB.Model(&models.Post{}).Where("original_post_id = ?", post.ID).Count(&shadows)

	assert.EqualValues(t, 0, likes)
	assert.EqualValues(t, 0, saves)
	assert.EqualValues(t, 0, comments)
	assert.EqualValues(t, 0, notifs)
	assert.EqualValues(t, 0, shadows)

	var gone models.Post
	err := database.DB.First(&gone, "id = ?", post.ID).Error
	assert.Error(t, err)
}

func TestPinExclusivity(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	first := createTestPost(t, alice, "first")
	second := createTestPost(t, alice, "second")
	router := newTestRouter(alice)

	w, _ := doJSON(t, router, http.MethodPost, "/api/post/"+first.ID+"/pin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Pinning another post silently unpins the first
	w, _ = doJSON(t, router, http.MethodPost, "/api/post/"+second.ID+"/pin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var pinned []models.Post
	require.NoError(t, database.DB.Where("user_id = ? AND is_pinned = ?", alice.ID, true).Find(&pinned).Error)
	require.Len(t, pinned, 1)
	assert.Equal(t, second.ID, pinned[0].ID)
}

func TestPinAuthorization(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	post := createTestPost(t, alice, "alice's post")

	bobRouter := newTestRouter(bob)
	w, _ := doJSON(t, bobRouter, http.MethodPost, "/api/post/"+post.ID+"/pin", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnpinRequiresPinned(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	post := createTestPost(t, alice, "never pinned")
	router := newTestRouter(alice)

	w, _ := doJSON(t, router, http.MethodDelete, "/api/post/"+post.ID+"/pin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

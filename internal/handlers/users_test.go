package handlers

import (
	"net/http"
	"testing"

	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFollowRoundTrip(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	router := newTestRouter(bob)

	w, resp := doJSON(t, router, http.MethodPost, "/api/user/alice/follow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["following"])

	var aliceReloaded, bobReloaded models.User
	require.NoError(t, database.DB.First(&aliceReloaded, "id = ?", alice.ID).Error)
	require.NoError(t, database.DB.First(&bobReloaded, "id = ?", bob.ID).Error)
	assert.Equal(t, 1, aliceReloaded.FollowerCount)
	assert.Equal(t, 1, bobReloaded.FollowingCount)

	assert.EqualValues(t, 1, countNotifications(t, alice.ID, models.NotificationFollow))

	w, resp = doJSON(t, router, http.MethodPost, "/api/user/alice/follow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["following"])

	require.NoError(t, database.DB.First(&aliceReloaded, "id = ?", alice.ID).Error)
	require.NoError(t, database.DB.First(&bobReloaded, "id = ?", bob.ID).Error)
	assert.Equal(t, 0, aliceReloaded.FollowerCount)
	assert.Equal(t, 0, bobReloaded.FollowingCount)

	var edges int64
	database.DB.Model(&models.Follow{}).Count(&edges)
	assert.EqualValues(t, 0, edges)

	// Unfollow leaves the original follow notification in place
	assert.EqualValues(t, 1, countNotifications(t, alice.ID, models.NotificationFollow))
}

func TestFollowNotifiesPerAction(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	router := newTestRouter(bob)

	// Follow, unfollow, follow again: two separate follow actions
	doJSON(t, router, http.MethodPost, "/api/user/alice/follow", nil)
	doJSON(t, router, http.MethodPost, "/api/user/alice/follow", nil)
	doJSON(t, router, http.MethodPost, "/api/user/alice/follow", nil)

	assert.EqualValues(t, 2, countNotifications(t, alice.ID, models.NotificationFollow))
}

func TestSelfFollowForbidden(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	router := newTestRouter(alice)

	w, _ := doJSON(t, router, http.MethodPost, "/api/user/alice/follow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleBlockSeversFollows(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	aliceRouter := newTestRouter(alice)
	bobRouter := newTestRouter(bob)

	// Mutual follows, then alice blocks bob
	doJSON(t, aliceRouter, http.MethodPost, "/api/user/bob/follow", nil)
	doJSON(t, bobRouter, http.MethodPost, "/api/user/alice/follow", nil)

	w, resp := doJSON(t, aliceRouter, http.MethodPost, "/api/user/bob/block", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["blocked"])

	var edges int64
	database.DB.Model(&models.Follow{}).Count(&edges)
	assert.EqualValues(t, 0, edges)

	var aliceReloaded models.User
	require.NoError(t, database.DB.First(&aliceReloaded, "id = ?", alice.ID).Error)
	assert.Equal(t, 0, aliceReloaded.FollowerCount)
	assert.Equal(t, 0, aliceReloaded.FollowingCount)

	// Unblock removes the block row but does not restore follows
	w, resp = doJSON(t, aliceRouter, http.MethodPost, "/api/user/bob/block", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["blocked"])

	database.DB.Model(&models.Follow{}).Count(&edges)
	assert.EqualValues(t, 0, edges)
}

func TestGetProfile(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	router := newTestRouter(bob)

	doJSON(t, router, http.MethodPost, "/api/user/alice/follow", nil)

	w, resp := doJSON(t, router, http.MethodGet, "/api/user/Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, alice.Username, resp["user"].(map[string]interface{})["username"])
	assert.Equal(t, true, resp["is_following"])
	assert.Equal(t, false, resp["is_blocked"])

	w, _ = doJSON(t, router, http.MethodGet, "/api/user/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	createTestUser(t, "bob")
	router := newTestRouter(alice)

	w, resp := doJSON(t, router, http.MethodPut, "/api/user/profile", map[string]string{
		"display_name": "Alice A.",
		"bio":          "hello there",
	})
	require.Equal(t, http.StatusOK, w.Code)
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "Alice A.", user["display_name"])
	assert.Equal(t, "hello there", user["bio"])

	// Taken username is rejected
	w, _ = doJSON(t, router, http.MethodPut, "/api/user/profile", map[string]string{"username": "BOB"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Validation failures are 400s with a field-scoped code
	w, resp = doJSON(t, router, http.MethodPut, "/api/user/profile", map[string]string{"username": "al"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp["code"])
	assert.Equal(t, "username", resp["field"])
}

func TestSuggestedUsers(t *testing.T) {
	setupTestDB(t)
	viewer := createTestUser(t, "viewer")
	followed := createTestUser(t, "followed")
	blocked := createTestUser(t, "blocked")
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5", "u6"} {
		createTestUser(t, name)
	}

	router := newTestRouter(viewer)
	doJSON(t, router, http.MethodPost, "/api/user/followed/follow", nil)
	doJSON(t, router, http.MethodPost, "/api/user/blocked/block", nil)

	w, resp := doJSON(t, router, http.MethodGet, "/api/user/suggested", nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := resp["users"].([]interface{})
	assert.Len(t, users, 5)
	for _, u := range users {
		id := u.(map[string]interface{})["id"]
		assert.NotEqual(t, viewer.ID, id)
		assert.NotEqual(t, followed.ID, id)
		assert.NotEqual(t, blocked.ID, id)
	}
}

func TestFollowerListings(t *testing.T) {
	setupTestDB(t)
	createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	carol := createTestUser(t, "carol")

	bobRouter := newTestRouter(bob)
	carolRouter := newTestRouter(carol)
	doJSON(t, bobRouter, http.MethodPost, "/api/user/alice/follow", nil)
	doJSON(t, carolRouter, http.MethodPost, "/api/user/alice/follow", nil)

	_, resp := doJSON(t, bobRouter, http.MethodGet, "/api/user/alice/followers", nil)
	assert.Len(t, resp["users"], 2)

	_, resp = doJSON(t, bobRouter, http.MethodGet, "/api/user/bob/following", nil)
	users := resp["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].(map[string]interface{})["username"])
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/auth"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/middleware"
	"github.com/onsekiz/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(service *auth.Service) *gin.Engine {
	ah := NewAuthHandlers(service, nil)

	router := gin.New()
	authRoutes := router.Group("/api/auth")
	authRoutes.POST("/signup", ah.Signup)
	authRoutes.POST("/login", ah.Login)
	authRoutes.POST("/logout", ah.Logout)
	authRoutes.POST("/forgot-password", ah.ForgotPassword)
	authRoutes.POST("/reset-password", ah.ResetPassword)

	protected := router.Group("/api/auth", middleware.Auth(service))
	protected.GET("/me", ah.Me)
	protected.POST("/verify-email", ah.VerifyEmail)

	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestSignupLoginFlow(t *testing.T) {
	setupTestDB(t)
	service := auth.NewService([]byte("test-secret"))
	router := newAuthRouter(service)

	signup := map[string]string{
		"username":     "alice",
		"display_name": "Alice",
		"email":        "alice@example.com",
		"password":     "hunter22",
	}

	w := postJSON(t, router, "/api/auth/signup", signup)
	require.Equal(t, http.StatusCreated, w.Code)

	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	// The session cookie grants access to protected routes
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "alice")
	// The password hash never leaves the server
	assert.NotContains(t, me.Body.String(), "password")

	// Duplicate signup is rejected
	w = postJSON(t, router, "/api/auth/signup", signup)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	setupTestDB(t)
	service := auth.NewService([]byte("test-secret"))
	router := newAuthRouter(service)

	w := postJSON(t, router, "/api/auth/logout", map[string]string{})
	require.Equal(t, http.StatusOK, w.Code)

	cookie := sessionCookie(t, w)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)
}

func TestVerifyEmailHandler(t *testing.T) {
	setupTestDB(t)
	service := auth.NewService([]byte("test-secret"))
	router := newAuthRouter(service)

	w := postJSON(t, router, "/api/auth/signup", map[string]string{
		"username":     "alice",
		"display_name": "Alice",
		"email":        "alice@example.com",
		"password":     "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	cookie := sessionCookie(t, w)

	var user models.User
	require.NoError(t, database.DB.Where("username = ?", "alice").First(&user).Error)
	require.NotNil(t, user.VerificationCode)

	w = postJSON(t, router, "/api/auth/verify-email", map[string]string{"code": "999999"}, cookie)
	if w.Code == http.StatusOK {
		t.Fatal("wrong code accepted")
	}

	w = postJSON(t, router, "/api/auth/verify-email", map[string]string{"code": *user.VerificationCode}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.First(&user, "id = ?", user.ID).Error)
	assert.True(t, user.EmailVerified)
}

func TestPasswordResetHandlers(t *testing.T) {
	setupTestDB(t)
	service := auth.NewService([]byte("test-secret"))
	router := newAuthRouter(service)

	postJSON(t, router, "/api/auth/signup", map[string]string{
		"username":     "alice",
		"display_name": "Alice",
		"email":        "alice@example.com",
		"password":     "hunter22",
	})

	// Unknown address gets the same response as a known one
	w := postJSON(t, router, "/api/auth/forgot-password", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, router, "/api/auth/forgot-password", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, database.DB.Where("username = ?", "alice").First(&user).Error)
	require.NotNil(t, user.ResetCode)

	w = postJSON(t, router, "/api/auth/reset-password", map[string]string{
		"email":    "alice@example.com",
		"code":     *user.ResetCode,
		"password": "newpass99",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "newpass99",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/auth"
	"github.com/onsekiz/backend/internal/email"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/middleware"
	"github.com/onsekiz/backend/internal/util"
)

// AuthHandlers handles signup/login/logout and the one-time-code flows
type AuthHandlers struct {
	service *auth.Service
	email   *email.Service
}

// NewAuthHandlers creates auth handlers. The email service may be nil,
// in which case verification and reset emails are skipped.
func NewAuthHandlers(service *auth.Service, emailService *email.Service) *AuthHandlers {
	return &AuthHandlers{service: service, email: emailService}
}

const sessionMaxAge = 7 * 24 * 3600 // seconds, matches token lifetime

func (h *AuthHandlers) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, sessionMaxAge, "/", "", false, true)
}

func (h *AuthHandlers) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
}

// Signup registers a new account and opens a session
// POST /api/auth/signup
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondBadRequest(c, "email already in use")
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondBadRequest(c, "username already taken")
		default:
			logger.ErrorWithFields("signup failed", err)
			util.RespondInternalError(c, "failed to create account")
		}
		return
	}

	// Send the verification code out of band; signup succeeds either way
	if h.email != nil && resp.User.VerificationCode != nil {
		if err := h.email.SendVerificationEmail(c.Request.Context(), resp.User.Email, *resp.User.VerificationCode); err != nil {
			logger.WarnWithFields("failed to send verification email", err)
		}
	}

	h.setSessionCookie(c, resp.Token)
	c.JSON(http.StatusCreated, gin.H{"user": resp.User})
}

// Login opens a session for an existing account
// POST /api/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Login(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			util.RespondUnauthorized(c, "invalid email or password")
		default:
			logger.ErrorWithFields("login failed", err)
			util.RespondInternalError(c, "failed to log in")
		}
		return
	}

	h.setSessionCookie(c, resp.Token)
	c.JSON(http.StatusOK, gin.H{"user": resp.User})
}

// Logout clears the session cookie
// POST /api/auth/logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user
// GET /api/auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// VerifyEmail consumes the one-time verification code
// POST /api/auth/verify-email
func (h *AuthHandlers) VerifyEmail(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.service.VerifyEmail(userID, req.Code); err != nil {
		util.RespondBadRequest(c, "invalid or expired code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email verified"})
}

// ResendCode issues and emails a fresh verification code
// POST /api/auth/resend-code
func (h *AuthHandlers) ResendCode(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	code, err := h.service.RenewVerificationCode(user.ID)
	if err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if h.email != nil {
		if err := h.email.SendVerificationEmail(c.Request.Context(), user.Email, code); err != nil {
			logger.WarnWithFields("failed to send verification email", err)
			util.RespondInternalError(c, "failed to send verification email")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

// ForgotPassword stores and emails a one-time reset code.
// Always responds 200 so account existence is not revealed.
// POST /api/auth/forgot-password
func (h *AuthHandlers) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	user, code, err := h.service.RequestPasswordReset(req.Email)
	if err != nil {
		logger.ErrorWithFields("password reset request failed", err)
		util.RespondInternalError(c, "failed to process request")
		return
	}

	if user != nil && h.email != nil {
		if err := h.email.SendPasswordResetEmail(c.Request.Context(), user.Email, code); err != nil {
			logger.WarnWithFields("failed to send reset email", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset code has been sent"})
}

// ResetPassword consumes the reset code and sets a new password
// POST /api/auth/reset-password
func (h *AuthHandlers) ResetPassword(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Code     string `json:"code" binding:"required,len=6"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.service.ResetPassword(req.Email, req.Code, req.Password); err != nil {
		util.RespondBadRequest(c, "invalid or expired code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUsernameExists     = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid or expired code")
)

const (
	tokenLifetime = 7 * 24 * time.Hour
	codeLifetime  = 15 * time.Minute
)

// Service handles all authentication operations
type Service struct {
	jwtSecret []byte
}

// NewService creates a new authentication service
func NewService(jwtSecret []byte) *Service {
	return &Service{jwtSecret: jwtSecret}
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterRequest represents a signup request
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=30"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=50"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user with email/password
func (s *Service) Register(req RegisterRequest) (*AuthResponse, error) {
	var existingUser models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&existingUser).Error
	if err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var usernameCheck models.User
	err = database.DB.Where("LOWER(username) = LOWER(?)", req.Username).First(&usernameCheck).Error
	if err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hashedPasswordStr := string(hashedPassword)
	code := GenerateCode()
	codeExpiry := time.Now().Add(codeLifetime)

	user := models.User{
		Username:              req.Username,
		DisplayName:           req.DisplayName,
		Email:                 req.Email,
		PasswordHash:          &hashedPasswordStr,
		VerificationCode:      &code,
		VerificationExpiresAt: &codeExpiry,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateAuthResponse(&user)
}

// Login authenticates with email/password
func (s *Service) Login(req LoginRequest) (*AuthResponse, error) {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateAuthResponse(&user)
}

// VerifyEmail consumes the one-time verification code for a user
func (s *Service) VerifyEmail(userID, code string) error {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	if user.VerificationCode == nil || *user.VerificationCode != code {
		return ErrInvalidCode
	}
	if user.VerificationExpiresAt == nil || time.Now().After(*user.VerificationExpiresAt) {
		return ErrInvalidCode
	}

	return database.DB.Model(&user).Updates(map[string]interface{}{
		"email_verified":          true,
		"verification_code":       nil,
		"verification_expires_at": nil,
	}).Error
}

// RenewVerificationCode issues a fresh verification code for a user
func (s *Service) RenewVerificationCode(userID string) (string, error) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return "", ErrUserNotFound
	}
	if user.EmailVerified {
		return "", errors.New("email already verified")
	}

	code := GenerateCode()
	expiry := time.Now().Add(codeLifetime)
	err := database.DB.Model(&user).Updates(map[string]interface{}{
		"verification_code":       code,
		"verification_expires_at": expiry,
	}).Error
	return code, err
}

// RequestPasswordReset stores a one-time reset code for the account.
// Returns the user and code, or (nil, "") when the email is unknown so
// callers can avoid revealing whether an account exists.
func (s *Service) RequestPasswordReset(email string) (*models.User, string, error) {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("database error: %w", err)
	}

	code := GenerateCode()
	expiry := time.Now().Add(codeLifetime)
	err = database.DB.Model(&user).Updates(map[string]interface{}{
		"reset_code":       code,
		"reset_expires_at": expiry,
	}).Error
	if err != nil {
		return nil, "", fmt.Errorf("failed to store reset code: %w", err)
	}

	return &user, code, nil
}

// ResetPassword validates the reset code and updates the user's password
func (s *Service) ResetPassword(email, code, newPassword string) error {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		return ErrInvalidCode
	}

	if user.ResetCode == nil || *user.ResetCode != code {
		return ErrInvalidCode
	}
	if user.ResetExpiresAt == nil || time.Now().After(*user.ResetExpiresAt) {
		return ErrInvalidCode
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	hashedPasswordStr := string(hashedPassword)
	return database.DB.Model(&user).Updates(map[string]interface{}{
		"password_hash":    hashedPasswordStr,
		"reset_code":       nil,
		"reset_expires_at": nil,
	}).Error
}

// ValidateToken validates a JWT token and returns the user it belongs to
func (s *Service) ValidateToken(tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid user_id in token")
	}

	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return &user, nil
}

// generateAuthResponse creates JWT token and auth response
func (s *Service) generateAuthResponse(user *models.User) (*AuthResponse, error) {
	expiresAt := time.Now().Add(tokenLifetime)

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

// GenerateCode produces a 6-digit one-time code
func GenerateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the platform is broken; fall back to a fixed-width zero code
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64())
}

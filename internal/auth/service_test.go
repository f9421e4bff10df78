package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

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

func newTestService() *Service {
	return NewService([]byte("test-secret"))
}

func register(t *testing.T, s *Service, username, email string) *AuthResponse {
	t.Helper()
	resp, err := s.Register(RegisterRequest{
		Username:    username,
		DisplayName: username,
		Email:       email,
		Password:    "hunter22",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	setupTestDB(t)
	s := newTestService()

	resp := register(t, s, "alice", "alice@example.com")
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
	assert.False(t, resp.User.EmailVerified)
	require.NotNil(t, resp.User.VerificationCode)
	assert.Len(t, *resp.User.VerificationCode, 6)

	login, err := s.Login(LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = s.Login(LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(LoginRequest{Email: "ghost@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegisterUniqueness(t *testing.T) {
	setupTestDB(t)
	s := newTestService()
	register(t, s, "alice", "alice@example.com")

	// Case differences do not evade the uniqueness checks
	_, err := s.Register(RegisterRequest{
		Username: "other", DisplayName: "o", Email: "ALICE@example.com", Password: "hunter22",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = s.Register(RegisterRequest{
		Username: "ALICE", DisplayName: "a", Email: "new@example.com", Password: "hunter22",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestValidateToken(t *testing.T) {
	setupTestDB(t)
	s := newTestService()
	resp := register(t, s, "alice", "alice@example.com")

	user, err := s.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	_, err = s.ValidateToken("not-a-token")
	assert.Error(t, err)

	// A token signed with a different secret is rejected
	other := NewService([]byte("different-secret"))
	otherResp, err := other.generateAuthResponse(&resp.User)
	require.NoError(t, err)
	_, err = s.ValidateToken(otherResp.Token)
	assert.Error(t, err)
}

func TestVerifyEmail(t *testing.T) {
	setupTestDB(t)
	s := newTestService()
	resp := register(t, s, "alice", "alice@example.com")
	code := *resp.User.VerificationCode

	assert.ErrorIs(t, s.VerifyEmail(resp.User.ID, "000001"), ErrInvalidCode)

	require.NoError(t, s.VerifyEmail(resp.User.ID, code))

	var user models.User
	require.NoError(t, database.DB.First(&user, "id = ?", resp.User.ID).Error)
	assert.True(t, user.EmailVerified)
	assert.Nil(t, user.VerificationCode)

	// The code is single-use
	assert.ErrorIs(t, s.VerifyEmail(resp.User.ID, code), ErrInvalidCode)
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	setupTestDB(t)
	s := newTestService()
	resp := register(t, s, "alice", "alice@example.com")
	code := *resp.User.VerificationCode

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, database.DB.Model(&models.User{}).Where("id = ?", resp.User.ID).
		UpdateColumn("verification_expires_at", expired).Error)

	assert.ErrorIs(t, s.VerifyEmail(resp.User.ID, code), ErrInvalidCode)
}

func TestPasswordResetFlow(t *testing.T) {
	setupTestDB(t)
	s := newTestService()
	register(t, s, "alice", "alice@example.com")

	// Unknown email is reported as success with no user
	user, code, err := s.RequestPasswordReset("ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Empty(t, code)

	user, code, err = s.RequestPasswordReset("alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Len(t, code, 6)

	assert.ErrorIs(t, s.ResetPassword("alice@example.com", "000001", "newpass123"), ErrInvalidCode)

	require.NoError(t, s.ResetPassword("alice@example.com", code, "newpass123"))

	_, err = s.Login(LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(LoginRequest{Email: "alice@example.com", Password: "newpass123"})
	assert.NoError(t, err)

	// The reset code is single-use
	assert.ErrorIs(t, s.ResetPassword("alice@example.com", code, "again"), ErrInvalidCode)
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code := GenerateCode()
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an OnSekiz account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`

	PasswordHash *string `gorm:"type:text" json:"-"`

	// Profile data
	Bio             string `gorm:"type:text" json:"bio"`
	Link            string `gorm:"type:text" json:"link"`
	ProfileImageURL string `json:"profile_image_url"`
	CoverImageURL   string `json:"cover_image_url"`

	// Email verification one-time-code state
	EmailVerified         bool       `gorm:"default:false" json:"email_verified"`
	VerificationCode      *string    `gorm:"type:text" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`

	// Password reset one-time-code state
	ResetCode      *string    `gorm:"type:text" json:"-"`
	ResetExpiresAt *time.Time `json:"-"`

	// Cached social counts, kept in step with the follows table
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Follow is one directed edge of the follow graph
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"follower_id"`
	Follower   User   `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	FollowedID string `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"followed_id"`
	Followed   User   `gorm:"foreignKey:FollowedID" json:"followed,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// UserBlock represents a user blocking another user.
// Storage is asymmetric (only the blocker's row exists); feed reads
// enforce the relation in both directions.
type UserBlock struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	BlockerID string `gorm:"not null;index;uniqueIndex:idx_user_blocks_pair" json:"blocker_id"`
	Blocker   User   `gorm:"foreignKey:BlockerID" json:"blocker,omitempty"`
	BlockedID string `gorm:"not null;index;uniqueIndex:idx_user_blocks_pair" json:"blocked_id"`
	Blocked   User   `gorm:"foreignKey:BlockedID" json:"blocked,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (UserBlock) TableName() string {
	return "user_blocks"
}

// BeforeCreate hooks for GORM

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (b *UserBlock) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}

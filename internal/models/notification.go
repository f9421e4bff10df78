package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType identifies the action that produced a notification
type NotificationType string

const (
	NotificationFollow       NotificationType = "follow"
	NotificationLike         NotificationType = "like"
	NotificationComment      NotificationType = "comment"
	NotificationMention      NotificationType = "mention"
	NotificationRetweet      NotificationType = "retweet"
	NotificationQuoteRetweet NotificationType = "quote_retweet"
)

// Notification is created as a side effect of social actions and
// addressed to a single recipient. Like/retweet/quote notifications are
// upserted on (to, from, type, post) so repeated toggling never spams
// the recipient.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	FromID string `gorm:"not null;index" json:"from_id"`
	From   User   `gorm:"foreignKey:FromID" json:"from,omitempty"`
	ToID   string `gorm:"not null;index" json:"to_id"`
	To     User   `gorm:"foreignKey:ToID" json:"-"`

	Type NotificationType `gorm:"not null" json:"type"`

	PostID    *string `gorm:"type:uuid;index" json:"post_id,omitempty"`
	CommentID *string `gorm:"type:uuid" json:"comment_id,omitempty"`

	Read bool `gorm:"default:false" json:"read"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

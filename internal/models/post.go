package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a content record. A direct retweet is a Post row with
// OriginalPostID set and no content of its own; a quote retweet
// additionally sets IsQuoteRetweet and carries its own content.
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content  string `gorm:"type:text" json:"content"`
	ImageURL string `json:"image_url"`

	IsPinned bool `gorm:"default:false" json:"is_pinned"`

	// Retweet bookkeeping
	OriginalPostID *string `gorm:"type:uuid;index" json:"original_post_id,omitempty"`
	OriginalPost   *Post   `gorm:"foreignKey:OriginalPostID" json:"original_post,omitempty"`
	IsQuoteRetweet bool    `gorm:"default:false" json:"is_quote_retweet"`

	// Cached engagement counts, kept in step with the join tables
	LikeCount    int `gorm:"default:0" json:"like_count"`
	SaveCount    int `gorm:"default:0" json:"save_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`
	RetweetCount int `gorm:"default:0" json:"retweet_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Comment is a comment on a Post. ParentID is null for top-level
// comments; replies reference their top-level parent (one nesting level).
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	ParentID *string    `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent   *Comment   `gorm:"foreignKey:ParentID" json:"-"`
	Replies  []*Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`

	LikeCount int `gorm:"default:0" json:"like_count"`

	// Edit tracking
	IsEdited bool       `gorm:"default:false" json:"is_edited"`
	EditedAt *time.Time `json:"edited_at,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PostLike records one user liking one post
type PostLike struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_post_likes_pair" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_post_likes_pair" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string {
	return "post_likes"
}

// SavedPost records one user bookmarking one post
type SavedPost struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_saved_posts_pair" json:"user_id"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_saved_posts_pair" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"post,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HiddenPost records a post a viewer has opted out of seeing.
// Hidden posts are excluded from every listing for that viewer only.
type HiddenPost struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_hidden_posts_pair" json:"user_id"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_hidden_posts_pair" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"post,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CommentLike records one user liking one comment
type CommentLike struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string  `gorm:"not null;index;uniqueIndex:idx_comment_likes_pair" json:"user_id"`
	User      User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CommentID string  `gorm:"not null;index;uniqueIndex:idx_comment_likes_pair" json:"comment_id"`
	Comment   Comment `gorm:"foreignKey:CommentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (CommentLike) TableName() string {
	return "comment_likes"
}

// PostMention tracks @mentions resolved from post text
type PostMention struct {
	ID              string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID          string `gorm:"not null;index;uniqueIndex:idx_post_mentions_pair" json:"post_id"`
	Post            Post   `gorm:"foreignKey:PostID" json:"-"`
	MentionedUserID string `gorm:"not null;index;uniqueIndex:idx_post_mentions_pair" json:"mentioned_user_id"`
	MentionedUser   User   `gorm:"foreignKey:MentionedUserID" json:"mentioned_user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CommentMention tracks @mentions resolved from comment text
type CommentMention struct {
	ID              string  `gorm:"primaryKey;type:uuid" json:"id"`
	CommentID       string  `gorm:"not null;index;uniqueIndex:idx_comment_mentions_pair" json:"comment_id"`
	Comment         Comment `gorm:"foreignKey:CommentID" json:"-"`
	MentionedUserID string  `gorm:"not null;index;uniqueIndex:idx_comment_mentions_pair" json:"mentioned_user_id"`
	MentionedUser   User    `gorm:"foreignKey:MentionedUserID" json:"mentioned_user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hooks for GORM

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (l *PostLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (s *SavedPost) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	return nil
}

func (h *HiddenPost) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = generateUUID()
	}
	return nil
}

func (l *CommentLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (m *PostMention) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

func (m *CommentMention) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

package content

import (
	"time"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
)

// Kind separates the content feeds.
type Kind string

const (
	KindRuling Kind = "ruling"
	KindVideo  Kind = "video"
	KindNews   Kind = "news"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindRuling, KindVideo, KindNews:
		return true
	}
	return false
}

// Post is a daily ruling, video or news item published by an admin.
type Post struct {
	common.BaseModel
	Kind        Kind      `gorm:"type:varchar(20);not null;index:idx_posts_feed"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Slug        string    `gorm:"type:varchar(300);not null;uniqueIndex"`
	Summary     string    `gorm:"type:varchar(500)"`
	Body        string    `gorm:"type:text"`
	VideoURL    *string   `gorm:"type:varchar(500)"`
	ImagePath   *string   `gorm:"type:varchar(300)"`
	PublishDate time.Time `gorm:"not null;index:idx_posts_feed"`
	IsPublished bool      `gorm:"not null;index:idx_posts_feed"`
}

func (Post) TableName() string {
	return "content_posts"
}

// IsLive reports whether the post belongs in the public feeds at now.
func (p *Post) IsLive(now time.Time) bool {
	return p.IsPublished && !p.PublishDate.After(now)
}

// --- DTOs ---

type PostResponse struct {
	ID          uuid.UUID `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Summary     string    `json:"summary,omitempty"`
	Body        string    `json:"body,omitempty"`
	VideoURL    *string   `json:"video_url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishDate time.Time `json:"publish_date"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SavePostRequest is used for both create and full update.
type SavePostRequest struct {
	Kind        Kind       `json:"kind" binding:"required,oneof=ruling video news"`
	Title       string     `json:"title" binding:"required,max=255"`
	Slug        string     `json:"slug" binding:"omitempty,max=300"`
	Summary     string     `json:"summary" binding:"max=500"`
	Body        string     `json:"body"`
	VideoURL    *string    `json:"video_url" binding:"omitempty,url,max=500"`
	PublishDate *time.Time `json:"publish_date"`
	IsPublished bool       `json:"is_published"`
}

// ListQuery filters a feed.
type ListQuery struct {
	common.PaginationQuery
	Kind   Kind   `form:"kind" binding:"omitempty,oneof=ruling video news"`
	Search string `form:"q"`
	// IncludeUnpublished is set by admin routes only.
	IncludeUnpublished bool `form:"-"`
}

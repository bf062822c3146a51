package notification

import (
	"time"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType defines the type of notification. New types may be added freely.
type NotificationType string

const (
	QuestionAnswered NotificationType = "question_answered"
)

// Notification represents a user notification. After creation only IsRead changes.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index:idx_notification_user_status" json:"userId"`
	Type      NotificationType `gorm:"type:varchar(100);not null" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	RelatedID *uuid.UUID       `gorm:"type:uuid;index" json:"relatedId,omitempty"`
	IsRead    bool             `gorm:"not null;default:false;index:idx_notification_user_status" json:"isRead"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime;index:idx_notification_user_status" json:"createdAt"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// ListQuery filters GET /notifications.
type ListQuery struct {
	common.PaginationQuery
	UnreadOnly bool `form:"unread"`
}

// UnreadCountResponse is returned by the unread-count endpoint.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unreadCount"`
}

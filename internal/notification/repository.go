package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Notification, *common.Pagination, error)
	FindForUser(ctx context.Context, id, userID uuid.UUID) (*Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a notification repository. Pass a transaction
// handle to write notifications inside a larger unit of work.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, n *Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *gormRepository) forUser(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
}

// ListForUser returns the user's notifications, newest first.
func (r *gormRepository) ListForUser(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Notification, *common.Pagination, error) {
	db := r.forUser(ctx, userID)
	if query.UnreadOnly {
		db = db.Where("is_read = ?", false)
	}

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("count notifications of %s: %w", userID, err)
	}
	var items []Notification
	err := db.Order("created_at DESC").
		Limit(query.Limit()).
		Offset(query.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, nil, fmt.Errorf("list notifications of %s: %w", userID, err)
	}
	return items, common.NewPagination(total, query.Page, query.Limit()), nil
}

// FindForUser loads a notification owned by userID. Someone else's
// notification is reported as missing.
func (r *gormRepository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	var n Notification
	if err := r.forUser(ctx, userID).Where("id = ?", id).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Notification not found.")
		}
		return nil, fmt.Errorf("find notification %s: %w", id, err)
	}
	return &n, nil
}

// MarkRead flags one notification as read and reports whether it was unread.
func (r *gormRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	n, err := r.FindForUser(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if n.IsRead {
		return false, nil
	}
	res := r.forUser(ctx, userID).Where("id = ? AND is_read = ?", id, false).Update("is_read", true)
	if res.Error != nil {
		return false, fmt.Errorf("mark notification %s read: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.forUser(ctx, userID).Where("is_read = ?", false).Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark notifications of %s read: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.forUser(ctx, userID).Where("is_read = ?", false).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count unread notifications of %s: %w", userID, err)
	}
	return count, nil
}

// DeleteReadOlderThan removes read notifications created before cutoff.
func (r *gormRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete read notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

package notification

import (
	"context"
	"time"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BadgeInvalidator drops cached badge counts after a write that changes them.
type BadgeInvalidator interface {
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

// Service is the read side of notifications. They are written by the
// question lifecycle inside its own transaction.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Notification, *common.Pagination, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	repo   Repository
	badges BadgeInvalidator
	logger *zap.Logger
}

// NewService creates a notification service. badges may be nil.
func NewService(repo Repository, badges BadgeInvalidator, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		badges: badges,
		logger: logger.Named("NotificationService"),
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Notification, *common.Pagination, error) {
	items, pagination, err := s.repo.ListForUser(ctx, userID, query)
	if err != nil {
		s.logger.Error("Failed to list notifications", zap.Error(err), zap.String("userID", userID.String()))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve notifications.")
	}
	return items, pagination, nil
}

// MarkRead is idempotent; the badge cache is only dropped when the count changed.
func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	changed, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return err
		}
		s.logger.Error("Failed to mark notification as read", zap.Error(err), zap.String("notificationID", id.String()))
		return common.ErrInternalServer.WithDetails("Could not mark notification as read.")
	}
	if changed && s.badges != nil {
		s.badges.InvalidateUser(ctx, userID)
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to mark all notifications as read", zap.Error(err), zap.String("userID", userID.String()))
		return 0, common.ErrInternalServer.WithDetails("Could not mark all notifications as read.")
	}
	if count > 0 && s.badges != nil {
		s.badges.InvalidateUser(ctx, userID)
	}
	return count, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to count unread notifications", zap.Error(err), zap.String("userID", userID.String()))
		return 0, common.ErrInternalServer.WithDetails("Could not count notifications.")
	}
	return count, nil
}

// PurgeRead deletes read notifications older than olderThan. Unread ones are
// kept regardless of age, so badge counts never change.
func (s *service) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.repo.DeleteReadOlderThan(ctx, time.Now().Add(-olderThan))
}

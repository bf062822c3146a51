// Package badge serves the unread and pending counters shown on app badges.
package badge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"religious_services_backend/internal/platform/cache"
	"religious_services_backend/internal/question"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationCounter counts unread notifications.
type NotificationCounter interface {
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

// QuestionCounter counts question queues.
type QuestionCounter interface {
	CountNewAnswers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountAdminQueues(ctx context.Context) (*question.AdminCounts, error)
}

// UserCounts are the counters every user sees.
type UserCounts struct {
	UnreadNotifications int64 `json:"unreadNotifications"`
	NewAnswers          int64 `json:"newAnswers"`
}

// AdminCounts are the moderation queue sizes.
type AdminCounts struct {
	UnseenQuestions        int64 `json:"unseenQuestions"`
	PendingQuestions       int64 `json:"pendingQuestions"`
	UrgentPendingQuestions int64 `json:"urgentPendingQuestions"`
}

// Counts is the body of GET /badge-counts. Admin counters are present for admins only.
type Counts struct {
	UserCounts
	*AdminCounts
}

// Service computes badge counts behind a short-lived Redis cache.
type Service struct {
	questions     QuestionCounter
	notifications NotificationCounter
	cache         *cache.Helper
	ttl           time.Duration
	logger        *zap.Logger
}

func NewService(questions QuestionCounter, notifications NotificationCounter, cacheHelper *cache.Helper, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		questions:     questions,
		notifications: notifications,
		cache:         cacheHelper,
		ttl:           ttl,
		logger:        logger.Named("BadgeService"),
	}
}

// Get returns the counts for userID, plus the admin queues when isAdmin is set.
func (s *Service) Get(ctx context.Context, userID uuid.UUID, isAdmin bool) (*Counts, error) {
	user, err := s.userCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts := &Counts{UserCounts: *user}
	if isAdmin {
		admin, err := s.adminCounts(ctx)
		if err != nil {
			return nil, err
		}
		counts.AdminCounts = admin
	}
	return counts, nil
}

func (s *Service) userCounts(ctx context.Context, userID uuid.UUID) (*UserCounts, error) {
	key := cache.UserBadgeKey(userID)
	var cached UserCounts
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}
	newAnswers, err := s.questions.CountNewAnswers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count new answers: %w", err)
	}
	counts := &UserCounts{UnreadNotifications: unread, NewAnswers: newAnswers}
	s.store(ctx, key, counts)
	return counts, nil
}

func (s *Service) adminCounts(ctx context.Context) (*AdminCounts, error) {
	var cached AdminCounts
	if s.fromCache(ctx, cache.AdminBadgeKey, &cached) {
		return &cached, nil
	}

	queues, err := s.questions.CountAdminQueues(ctx)
	if err != nil {
		return nil, fmt.Errorf("count admin queues: %w", err)
	}
	counts := &AdminCounts{
		UnseenQuestions:        queues.Unseen,
		PendingQuestions:       queues.Pending,
		UrgentPendingQuestions: queues.UrgentPending,
	}
	s.store(ctx, cache.AdminBadgeKey, counts)
	return counts, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.Get(ctx, key, dest)
	switch {
	case err == nil:
		return true
	case errors.Is(err, cache.ErrCacheMiss), errors.Is(err, cache.ErrCacheNotAvailable):
	default:
		s.logger.Warn("Badge cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *Service) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("Badge cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateUser drops the cached counts of one user.
func (s *Service) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.UserBadgeKey(userID)); err != nil {
		s.logger.Warn("Badge cache invalidation failed", zap.String("userID", userID.String()), zap.Error(err))
	}
}

// InvalidateAdmins drops the cached admin queue counts.
func (s *Service) InvalidateAdmins(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.AdminBadgeKey); err != nil {
		s.logger.Warn("Admin badge cache invalidation failed", zap.Error(err))
	}
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss         = errors.New("cache: key not found")
	ErrCacheNotAvailable = errors.New("cache: not available")
)

const badgePrefix = "badges:"

// Helper stores JSON values under a key prefix. A Helper with a nil client
// is valid: reads report ErrCacheNotAvailable and writes are no-ops.
type Helper struct {
	client *redis.Client
	prefix string
}

// NewHelper creates a cache helper for the badge namespace.
func NewHelper(client *redis.Client) *Helper {
	return &Helper{client: client, prefix: badgePrefix}
}

func (h *Helper) key(k string) string {
	return h.prefix + k
}

// Get retrieves and unmarshals data from cache.
func (h *Helper) Get(ctx context.Context, key string, dest interface{}) error {
	if h == nil || h.client == nil {
		return ErrCacheNotAvailable
	}
	data, err := h.client.Get(ctx, h.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal: %w", err)
	}
	return nil
}

// Set marshals and stores data in cache.
func (h *Helper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if h == nil || h.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return h.client.Set(ctx, h.key(key), data, ttl).Err()
}

// Delete removes keys from cache.
func (h *Helper) Delete(ctx context.Context, keys ...string) error {
	if h == nil || h.client == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = h.key(k)
	}
	return h.client.Del(ctx, full...).Err()
}

// UserBadgeKey is the cache key for one user's badge counts.
func UserBadgeKey(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// AdminBadgeKey is the cache key for the admin badge counts shared by all admins.
const AdminBadgeKey = "admin"

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct {
	Unread int64 `json:"unread"`
}

func newTestHelper(t *testing.T) (*Helper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewHelper(client), mr
}

func TestHelper_SetGetDelete(t *testing.T) {
	h, mr := newTestHelper(t)
	ctx := context.Background()
	key := UserBadgeKey(uuid.New())

	require.NoError(t, h.Set(ctx, key, counts{Unread: 3}, time.Minute))
	assert.True(t, mr.Exists(badgePrefix+key))

	var got counts
	require.NoError(t, h.Get(ctx, key, &got))
	assert.Equal(t, int64(3), got.Unread)

	require.NoError(t, h.Delete(ctx, key))
	assert.ErrorIs(t, h.Get(ctx, key, &got), ErrCacheMiss)
}

func TestHelper_Expires(t *testing.T) {
	h, mr := newTestHelper(t)
	ctx := context.Background()

	require.NoError(t, h.Set(ctx, AdminBadgeKey, counts{Unread: 1}, 5*time.Second))
	mr.FastForward(6 * time.Second)

	var got counts
	assert.ErrorIs(t, h.Get(ctx, AdminBadgeKey, &got), ErrCacheMiss)
}

func TestHelper_NilClientDegrades(t *testing.T) {
	h := NewHelper(nil)
	ctx := context.Background()

	assert.NoError(t, h.Set(ctx, "k", counts{}, time.Second))
	assert.NoError(t, h.Delete(ctx, "k"))
	var got counts
	assert.ErrorIs(t, h.Get(ctx, "k", &got), ErrCacheNotAvailable)
}

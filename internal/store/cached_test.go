package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification-dispatcher/internal/models"
)

// countingStore counts backend hits so tests can assert the cache absorbed
// repeat lookups.
type countingStore struct {
	*MemoryStore
	userLookups     int64
	templateLookups int64
}

func (c *countingStore) FindUser(ctx context.Context, userID int64) (*models.User, error) {
	atomic.AddInt64(&c.userLookups, 1)
	return c.MemoryStore.FindUser(ctx, userID)
}

func (c *countingStore) FindTemplate(ctx context.Context, notificationID int64) (*models.NotificationTemplate, error) {
	atomic.AddInt64(&c.templateLookups, 1)
	return c.MemoryStore.FindTemplate(ctx, notificationID)
}

func newCachedFixture(t *testing.T) (*CachedStore, *countingStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	inner := &countingStore{MemoryStore: seededMemoryStore()}
	return NewCachedStore(inner, rdb, 10*time.Minute), inner, mr
}

func TestCachedStore_FindUser_ReadThrough(t *testing.T) {
	cached, inner, _ := newCachedFixture(t)
	ctx := context.Background()

	u, err := cached.FindUser(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", u.Email)
	assert.Equal(t, int64(1), atomic.LoadInt64(&inner.userLookups))

	// Second lookup comes from Redis.
	u, err = cached.FindUser(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", u.Email)
	assert.Equal(t, int64(1), atomic.LoadInt64(&inner.userLookups))
}

func TestCachedStore_FindTemplate_ReadThrough(t *testing.T) {
	cached, inner, _ := newCachedFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tmpl, err := cached.FindTemplate(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Welcome", tmpl.Subject)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&inner.templateLookups))
}

func TestCachedStore_MissPassesThroughNotFound(t *testing.T) {
	cached, _, _ := newCachedFixture(t)

	_, err := cached.FindUser(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStore_RedisDownFallsBackToInner(t *testing.T) {
	cached, inner, mr := newCachedFixture(t)
	ctx := context.Background()
	mr.Close()

	u, err := cached.FindUser(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", u.Email)

	// Every lookup hits the backend while Redis is down.
	_, err = cached.FindUser(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&inner.userLookups))
}

func TestCachedStore_DeliveryStateBypassesCache(t *testing.T) {
	cached, _, _ := newCachedFixture(t)
	ctx := context.Background()

	require.NoError(t, cached.MarkSent(ctx, 12, 1, time.Now().UTC()))

	n, err := cached.FindUserNotification(ctx, 12, 1)
	require.NoError(t, err)
	assert.True(t, n.Sent)

	unsent, err := cached.ListUnsent(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsent)
}

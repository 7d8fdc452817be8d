// internal/store/cached.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"notification-dispatcher/internal/models"
)

// CachedStore is a read-through Redis cache over the immutable lookups
// (users and templates). Delivery-state operations always pass through so
// the compare-and-set stays with the backing store.
type CachedStore struct {
	inner NotificationStore
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedStore(inner NotificationStore, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl}
}

func (s *CachedStore) FindUser(ctx context.Context, userID int64) (*models.User, error) {
	key := fmt.Sprintf("dispatch:user:%d", userID)

	var u models.User
	if hit, err := s.get(ctx, key, &u); err == nil && hit {
		return &u, nil
	}

	fresh, err := s.inner.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, fresh)
	return fresh, nil
}

func (s *CachedStore) FindTemplate(ctx context.Context, notificationID int64) (*models.NotificationTemplate, error) {
	key := fmt.Sprintf("dispatch:template:%d", notificationID)

	var t models.NotificationTemplate
	if hit, err := s.get(ctx, key, &t); err == nil && hit {
		return &t, nil
	}

	fresh, err := s.inner.FindTemplate(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, fresh)
	return fresh, nil
}

func (s *CachedStore) FindUserNotification(ctx context.Context, userID, notificationID int64) (*models.UserNotification, error) {
	return s.inner.FindUserNotification(ctx, userID, notificationID)
}

func (s *CachedStore) ListUnsent(ctx context.Context) ([]models.UserNotification, error) {
	return s.inner.ListUnsent(ctx)
}

func (s *CachedStore) MarkSent(ctx context.Context, userID, notificationID int64, sentAt time.Time) error {
	return s.inner.MarkSent(ctx, userID, notificationID, sentAt)
}

// get returns (true, nil) on a cache hit. Redis failures are treated as
// misses so the store keeps working without the cache.
func (s *CachedStore) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CachedStore) set(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.rdb.Set(ctx, key, raw, s.ttl).Err()
}

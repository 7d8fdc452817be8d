// internal/store/memory.go
package store

import (
	"context"
	"sync"
	"time"

	"notification-dispatcher/internal/models"
)

type pairKey struct {
	userID         int64
	notificationID int64
}

// MemoryStore is a mutex-guarded in-memory NotificationStore. Used in tests
// and local runs; the MarkSent compare-and-set holds under the lock.
type MemoryStore struct {
	mu            sync.Mutex
	users         map[int64]models.User
	templates     map[int64]models.NotificationTemplate
	notifications map[pairKey]models.UserNotification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[int64]models.User),
		templates:     make(map[int64]models.NotificationTemplate),
		notifications: make(map[pairKey]models.UserNotification),
	}
}

func (s *MemoryStore) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) AddTemplate(t models.NotificationTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
}

func (s *MemoryStore) AddUserNotification(n models.UserNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[pairKey{n.UserID, n.NotificationID}] = n
}

func (s *MemoryStore) FindUser(_ context.Context, userID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) FindTemplate(_ context.Context, notificationID int64) (*models.NotificationTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[notificationID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) FindUserNotification(_ context.Context, userID, notificationID int64) (*models.UserNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[pairKey{userID, notificationID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &n, nil
}

func (s *MemoryStore) ListUnsent(_ context.Context) ([]models.UserNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.UserNotification
	for _, n := range s.notifications {
		if !n.Sent {
			result = append(result, n)
		}
	}
	return result, nil
}

func (s *MemoryStore) MarkSent(_ context.Context, userID, notificationID int64, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{userID, notificationID}
	n, ok := s.notifications[key]
	if !ok {
		return ErrNotFound
	}
	if n.Sent {
		return ErrConflict
	}

	ts := sentAt.UTC()
	n.Sent = true
	n.SentAt = &ts
	s.notifications[key] = n
	return nil
}

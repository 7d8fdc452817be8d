// Package store defines the durable record of notifications and their
// delivery state.
package store

import (
	"context"
	"errors"
	"time"

	"notification-dispatcher/internal/models"
)

var (
	// ErrNotFound is returned when a user, template or delivery record does
	// not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned by MarkSent when the record was already marked
	// sent by a concurrent dispatch.
	ErrConflict = errors.New("already marked sent")
)

// NotificationStore is the capability set the dispatch engine consumes. The
// concrete backing store is an external collaborator.
//
// MarkSent must be atomic and conditioned on the record still being unsent
// (compare-and-set), so two concurrent dispatch attempts for the same pair
// cannot both succeed.
type NotificationStore interface {
	FindUser(ctx context.Context, userID int64) (*models.User, error)
	FindTemplate(ctx context.Context, notificationID int64) (*models.NotificationTemplate, error)
	FindUserNotification(ctx context.Context, userID, notificationID int64) (*models.UserNotification, error)

	// ListUnsent returns a snapshot of unsent delivery records. No lock is
	// held across iteration.
	ListUnsent(ctx context.Context) ([]models.UserNotification, error)

	// MarkSent transitions the record to sent. Returns ErrConflict if it was
	// already sent, ErrNotFound if the record does not exist.
	MarkSent(ctx context.Context, userID, notificationID int64, sentAt time.Time) error
}

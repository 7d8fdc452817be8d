// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"notification-dispatcher/internal/models"
)

// PostgresStore implements NotificationStore over a relational schema:
// user_profiles, notifications and user_notifications.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindUser(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT user_id, email, first_name, last_name, display_name FROM user_profiles WHERE user_id = $1`

	var u models.User
	var displayName sql.NullString
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &displayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
	u.DisplayName = displayName.String
	return &u, nil
}

func (s *PostgresStore) FindTemplate(ctx context.Context, notificationID int64) (*models.NotificationTemplate, error) {
	query := `SELECT notification_id, subject, body FROM notifications WHERE notification_id = $1`

	var t models.NotificationTemplate
	err := s.db.QueryRowContext(ctx, query, notificationID).Scan(&t.ID, &t.Subject, &t.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find template %d: %w", notificationID, err)
	}
	return &t, nil
}

func (s *PostgresStore) FindUserNotification(ctx context.Context, userID, notificationID int64) (*models.UserNotification, error) {
	query := `SELECT user_id, notification_id, sent, sent_at FROM user_notifications WHERE user_id = $1 AND notification_id = $2`

	var n models.UserNotification
	var sentAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, userID, notificationID).Scan(&n.UserID, &n.NotificationID, &n.Sent, &sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user notification (%d,%d): %w", userID, notificationID, err)
	}
	if sentAt.Valid {
		t := sentAt.Time
		n.SentAt = &t
	}
	return &n, nil
}

func (s *PostgresStore) ListUnsent(ctx context.Context) ([]models.UserNotification, error) {
	query := `SELECT user_id, notification_id, sent, sent_at FROM user_notifications WHERE sent = FALSE ORDER BY user_id, notification_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list unsent: %w", err)
	}
	defer rows.Close()

	var result []models.UserNotification
	for rows.Next() {
		var n models.UserNotification
		var sentAt sql.NullTime
		if err := rows.Scan(&n.UserID, &n.NotificationID, &n.Sent, &sentAt); err != nil {
			return nil, fmt.Errorf("scan unsent row: %w", err)
		}
		if sentAt.Valid {
			t := sentAt.Time
			n.SentAt = &t
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unsent rows: %w", err)
	}
	return result, nil
}

// MarkSent performs the compare-and-set: the UPDATE only matches while the
// row is still unsent, so exactly one of two racing dispatches wins.
func (s *PostgresStore) MarkSent(ctx context.Context, userID, notificationID int64, sentAt time.Time) error {
	query := `UPDATE user_notifications SET sent = TRUE, sent_at = $3 WHERE user_id = $1 AND notification_id = $2 AND sent = FALSE`

	res, err := s.db.ExecContext(ctx, query, userID, notificationID, sentAt.UTC())
	if err != nil {
		return fmt.Errorf("mark sent (%d,%d): %w", userID, notificationID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark sent rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: either the row is gone or someone else won the race.
	if _, err := s.FindUserNotification(ctx, userID, notificationID); err != nil {
		return err
	}
	return ErrConflict
}

// internal/models/notification.go
package models

import "time"

// User is the recipient profile. Immutable from the dispatcher's perspective.
type User struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName,omitempty"`
}

// NotificationTemplate holds the subject and body of a notification. The body
// may contain a {UserName} placeholder. Immutable.
type NotificationTemplate struct {
	ID      int64  `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// UserNotification is the delivery record, unique per (UserID, NotificationID).
// Created externally in an unsent state and transitioned to sent exactly once.
type UserNotification struct {
	UserID         int64      `json:"userId"`
	NotificationID int64      `json:"notificationId"`
	Sent           bool       `json:"sent"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
}

// Package errors provides the standardized error taxonomy for notification dispatch.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUserNotFound           ErrorCode = "USER_NOT_FOUND"
	ErrCodeTemplateNotFound       ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeNotificationNotFound   ErrorCode = "NOTIFICATION_RECORD_NOT_FOUND"
	ErrCodeDeliveryRejected       ErrorCode = "DELIVERY_REJECTED"
	ErrCodeDeliveryTimeout        ErrorCode = "DELIVERY_TIMEOUT"
	ErrCodePersistenceFailed      ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeMarkSentConflict       ErrorCode = "MARK_SENT_CONFLICT"
	ErrCodeStoreUnavailable       ErrorCode = "STORE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewUserNotFoundError creates a non-retryable lookup error.
func NewUserNotFoundError(userID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserNotFound,
		Message:   "User profile not found",
		Details:   fmt.Sprintf("userId: %d", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable lookup error.
func NewTemplateNotFoundError(notificationID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Notification template not found",
		Details:   fmt.Sprintf("notificationId: %d", notificationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationNotFoundError creates a non-retryable error for a missing
// delivery record. The record is created upstream; without it there is
// nothing to dispatch.
func NewNotificationNotFoundError(userID, notificationID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationNotFound,
		Message:   "User notification record not found",
		Details:   fmt.Sprintf("userId: %d, notificationId: %d", userID, notificationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeliveryRejectedError creates a retryable transport error.
func NewDeliveryRejectedError(transportName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeliveryRejected,
		Message:   "Transport rejected the message",
		Details:   fmt.Sprintf("transport: %s, error: %s", transportName, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeliveryTimeoutError creates a retryable transport timeout error.
func NewDeliveryTimeoutError(transportName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeliveryTimeout,
		Message:   "Transport call exceeded timeout threshold",
		Details:   fmt.Sprintf("transport: %s", transportName),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailedError creates the error for a send that could not be
// recorded. The message is already out; the row stays unsent, so the next
// cycle may deliver it again.
func NewPersistenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Message sent but delivery state could not be recorded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable store error.
func NewStoreUnavailableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Notification store error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether the error carries a retryable code.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

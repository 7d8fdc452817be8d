// Package dispatch implements the per-notification delivery flow: load the
// user, template and delivery record, render, send, then commit the sent
// mark with a compare-and-set.
package dispatch

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	cerrors "notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/metrics"
	"notification-dispatcher/internal/models"
	"notification-dispatcher/internal/render"
	"notification-dispatcher/internal/store"
	"notification-dispatcher/internal/transport"
)

// Terminal statuses of a dispatch attempt.
const (
	StatusCommitted = "committed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Outcome is the terminal result of one dispatch attempt.
type Outcome struct {
	AttemptID      string                 `json:"attemptId"`
	UserID         int64                  `json:"userId"`
	NotificationID int64                  `json:"notificationId"`
	Status         string                 `json:"status"`
	MessageID      string                 `json:"messageId,omitempty"`
	SentAt         *time.Time             `json:"sentAt,omitempty"`
	Err            *cerrors.StandardError `json:"error,omitempty"`
}

// Config carries the sender identity and the transport deadline.
type Config struct {
	FromEmail   string
	FromName    string
	SendTimeout time.Duration
}

type Dispatcher struct {
	store     store.NotificationStore
	transport transport.Transport
	config    Config
	logger    logger.Logger
}

func New(st store.NotificationStore, tr transport.Transport, cfg Config, log logger.Logger) *Dispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	return &Dispatcher{
		store:     st,
		transport: tr,
		config:    cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

// Dispatch runs one notification through the delivery flow. It never sends
// when the record is already marked sent, and it marks the record sent only
// after the transport accepted the message. A concurrent winner of the
// mark-sent race is reported as committed; the message went out exactly
// once through this process either way.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, notificationID int64) Outcome {
	attemptID := uuid.New().String()
	log := d.logger.WithFields(map[string]interface{}{
		"attemptId":      attemptID,
		"userId":         userID,
		"notificationId": notificationID,
	})

	record, err := d.store.FindUserNotification(ctx, userID, notificationID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return d.fail(log, attemptID, userID, notificationID, cerrors.NewNotificationNotFoundError(userID, notificationID))
		}
		return d.fail(log, attemptID, userID, notificationID, cerrors.NewStoreUnavailableError("find user notification", err))
	}

	user, err := d.store.FindUser(ctx, userID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return d.fail(log, attemptID, userID, notificationID, cerrors.NewUserNotFoundError(userID))
		}
		return d.fail(log, attemptID, userID, notificationID, cerrors.NewStoreUnavailableError("find user", err))
	}

	template, err := d.store.FindTemplate(ctx, notificationID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return d.fail(log, attemptID, userID, notificationID, cerrors.NewTemplateNotFoundError(notificationID))
		}
		return d.fail(log, attemptID, userID, notificationID, cerrors.NewStoreUnavailableError("find template", err))
	}

	// Skip guard, checked only after the lookups so a sent record with a
	// missing user or template still reports not-found.
	if record.Sent {
		log.Info("notification already sent, skipping", map[string]interface{}{
			"sentAt": record.SentAt,
		})
		metrics.DispatchesTotal.WithLabelValues(StatusSkipped, "").Inc()
		return Outcome{
			AttemptID:      attemptID,
			UserID:         userID,
			NotificationID: notificationID,
			Status:         StatusSkipped,
			SentAt:         record.SentAt,
		}
	}

	msg := d.buildMessage(user, template)

	result, sendErr := d.send(ctx, msg)
	if sendErr != nil {
		metrics.TransportSends.WithLabelValues(d.transport.Name(), "error").Inc()
		return d.fail(log, attemptID, userID, notificationID, sendErr)
	}
	metrics.TransportSends.WithLabelValues(d.transport.Name(), "accepted").Inc()

	sentAt := time.Now().UTC()
	if err := d.store.MarkSent(ctx, userID, notificationID, sentAt); err != nil {
		if stderrors.Is(err, store.ErrConflict) {
			// Lost the mark-sent race to a concurrent dispatch. The send
			// already happened, so this attempt still counts as committed.
			log.Warn("mark sent lost race to concurrent dispatch", nil)
			metrics.DispatchesTotal.WithLabelValues(StatusCommitted, string(cerrors.ErrCodeMarkSentConflict)).Inc()
			return Outcome{
				AttemptID:      attemptID,
				UserID:         userID,
				NotificationID: notificationID,
				Status:         StatusCommitted,
				MessageID:      result.MessageID,
				SentAt:         &sentAt,
			}
		}
		// Message is out but the state write failed. The row stays unsent
		// and the next cycle may send a duplicate; that is the at-least-once
		// trade-off, surfaced loudly here.
		log.Error("delivery succeeded but state update failed", map[string]interface{}{
			"error":     err,
			"messageId": result.MessageID,
		})
		return d.fail(log, attemptID, userID, notificationID, cerrors.NewPersistenceFailedError(err))
	}

	log.Info("notification dispatched", map[string]interface{}{
		"transport": d.transport.Name(),
		"messageId": result.MessageID,
		"sentAt":    sentAt,
	})
	metrics.DispatchesTotal.WithLabelValues(StatusCommitted, "").Inc()

	return Outcome{
		AttemptID:      attemptID,
		UserID:         userID,
		NotificationID: notificationID,
		Status:         StatusCommitted,
		MessageID:      result.MessageID,
		SentAt:         &sentAt,
	}
}

func (d *Dispatcher) buildMessage(user *models.User, template *models.NotificationTemplate) transport.Message {
	fullName := render.FullName(*user)
	subs := map[string]string{
		"UserName": fullName,
	}

	return transport.Message{
		From:     d.config.FromEmail,
		FromName: d.config.FromName,
		To:       user.Email,
		ToName:   fullName,
		Subject:  render.Render(template.Subject, subs),
		HTMLBody: render.Render(template.Body, subs),
		TextBody: render.Render(template.Body, subs),
	}
}

// send bounds the transport call with the configured deadline and maps
// failures onto the error taxonomy.
func (d *Dispatcher) send(ctx context.Context, msg transport.Message) (transport.Result, *cerrors.StandardError) {
	sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	defer cancel()

	result, err := d.transport.Send(sendCtx, msg)
	if err != nil {
		// Only a deadline maps to the timeout code; a cancelled parent
		// (shutdown) is an aborted attempt, not a slow provider.
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			return transport.Result{}, cerrors.NewDeliveryTimeoutError(d.transport.Name())
		}
		return transport.Result{}, cerrors.NewDeliveryRejectedError(d.transport.Name(), err)
	}
	if !result.Accepted {
		return transport.Result{}, cerrors.NewDeliveryRejectedError(d.transport.Name(),
			stderrors.New(rejectionDetail(result)))
	}
	return result, nil
}

func rejectionDetail(result transport.Result) string {
	switch {
	case result.Body != "":
		return result.Body
	case result.StatusCode != 0:
		return fmt.Sprintf("provider returned status %d", result.StatusCode)
	default:
		return "provider did not accept the message"
	}
}

func (d *Dispatcher) fail(log logger.Logger, attemptID string, userID, notificationID int64, stdErr *cerrors.StandardError) Outcome {
	log.Error("dispatch failed", map[string]interface{}{
		"errorCode": stdErr.Code,
		"details":   stdErr.Details,
		"retryable": stdErr.Retryable,
	})
	metrics.DispatchesTotal.WithLabelValues(StatusFailed, string(stdErr.Code)).Inc()

	return Outcome{
		AttemptID:      attemptID,
		UserID:         userID,
		NotificationID: notificationID,
		Status:         StatusFailed,
		Err:            stdErr,
	}
}

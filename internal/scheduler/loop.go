// Package scheduler drives periodic dispatch cycles over the unsent backlog.
package scheduler

import (
	"context"
	"time"

	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/metrics"
	"notification-dispatcher/internal/common/observability"
	"notification-dispatcher/internal/dispatch"
	"notification-dispatcher/internal/store"
)

// Loop polls the store for unsent notifications and dispatches each one. At
// most one cycle runs at a time; a cycle that outlasts the interval simply
// delays the next tick.
type Loop struct {
	store      store.NotificationStore
	dispatcher *dispatch.Dispatcher
	interval   time.Duration
	logger     logger.Logger
	obs        *observability.Observability
}

func NewLoop(st store.NotificationStore, d *dispatch.Dispatcher, interval time.Duration, log logger.Logger, obs *observability.Observability) *Loop {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Loop{
		store:      st,
		dispatcher: d,
		interval:   interval,
		logger:     log.WithFields(map[string]interface{}{"component": "scheduler"}),
		obs:        obs,
	}
}

// Run blocks until ctx is cancelled, executing one cycle per tick.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("scheduler started", map[string]interface{}{
		"interval": l.interval.String(),
	})

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("scheduler stopped", nil)
			return
		case <-ticker.C:
			if _, err := l.RunCycle(ctx); err != nil {
				l.logger.Error("cycle aborted", map[string]interface{}{
					"error": err,
				})
			}
		}
	}
}

// RunCycle lists the unsent backlog and dispatches every item. A failed
// dispatch never stops the cycle; only a failed listing does, and the error
// is returned so the next tick retries the whole backlog.
func (l *Loop) RunCycle(ctx context.Context) (int, error) {
	start := time.Now()

	unsent, err := l.store.ListUnsent(ctx)
	if err != nil {
		l.logger.Error("failed to list unsent notifications", map[string]interface{}{
			"error": err,
		})
		return 0, err
	}

	metrics.UnsentQueueDepth.Set(float64(len(unsent)))
	if len(unsent) == 0 {
		l.logger.Debug("no unsent notifications", nil)
		return 0, nil
	}

	l.logger.Info("cycle started", map[string]interface{}{
		"pending": len(unsent),
	})

	processed := 0
	for _, item := range unsent {
		if ctx.Err() != nil {
			break
		}

		itemStart := time.Now()
		outcome := l.dispatcher.Dispatch(ctx, item.UserID, item.NotificationID)
		processed++

		if l.obs != nil {
			l.obs.RecordDispatch(ctx, outcome.Status)
			l.obs.RecordDispatchDuration(ctx, time.Since(itemStart), outcome.Status)
		}
	}

	elapsed := time.Since(start)
	metrics.CycleDuration.Observe(elapsed.Seconds())

	l.logger.Info("cycle finished", map[string]interface{}{
		"processed": processed,
		"duration":  elapsed.String(),
	})
	return processed, nil
}

// cmd/dispatcher/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notification-dispatcher/internal/common/config"
	"notification-dispatcher/internal/common/database"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/observability"
	"notification-dispatcher/internal/dispatch"
	"notification-dispatcher/internal/httpapi"
	"notification-dispatcher/internal/scheduler"
	"notification-dispatcher/internal/store"
	"notification-dispatcher/internal/transport"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification dispatcher...",
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	var notifStore store.NotificationStore = store.NewPostgresStore(pg.DB)

	// --- Init Redis cache with retry, when enabled ---
	if cfg.Cache.Enabled {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")

		notifStore = store.NewCachedStore(notifStore, redisClient.Client, config.GetDuration(cfg.Cache.TTL))
	}

	// --- Init transport ---
	tr, err := buildTransport(ctx, cfg)
	if err != nil {
		zapLog.Fatal("transport init failed", zap.Error(err))
	}
	zapLog.Info("Transport initialized", zap.String("provider", tr.Name()))

	dispatcher := dispatch.New(notifStore, tr, dispatch.Config{
		FromEmail:   cfg.Mail.FromEmail,
		FromName:    cfg.Mail.FromName,
		SendTimeout: config.GetDuration(cfg.Scheduler.SendTimeout),
	}, log)

	// --- Scheduler loop ---
	loop := scheduler.NewLoop(notifStore, dispatcher, config.GetDuration(cfg.Scheduler.PollInterval), log, obs)
	go loop.Run(ctx)

	// --- HTTP server ---
	server := httpapi.NewServer(cfg.HTTP.Address, dispatcher, notifStore, log)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Notification dispatcher stopped")
}

func buildTransport(ctx context.Context, cfg *config.Config) (transport.Transport, error) {
	switch cfg.Mail.Provider {
	case "ses":
		return transport.NewSESTransport(ctx, cfg.Mail.AWS.Region)
	case "sns":
		return transport.NewSNSTransport(ctx, cfg.Mail.AWS.Region)
	case "smtp":
		return transport.NewSMTPTransport(transport.SMTPConfig{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
			UseTLS:   cfg.Mail.SMTP.UseTLS,
		}), nil
	default:
		return nil, fmt.Errorf("unknown mail provider: %s", cfg.Mail.Provider)
	}
}

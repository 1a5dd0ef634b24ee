package worker

import (
	"context"
	"time"

	"storefront/internal/broker"
	"storefront/internal/service"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes order events and records admin notifications
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, notifications *service.NotificationService) *NotificationWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderPlaced(notifications.HandleOrderPlaced)
	eventHandler.OnOrderCancelled(notifications.HandleOrderCancelled)
	eventHandler.OnRefundRequested(notifications.HandleRefundRequested)

	return &NotificationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.ComponentLogger("notification-worker"),
	}
}

// Start blocks consuming events until ctx is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

// TokenPurger deletes expired or revoked tokens
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

// TokenJanitor periodically removes dead access tokens
type TokenJanitor struct {
	store    TokenPurger
	interval time.Duration
	logger   *zap.Logger
}

func NewTokenJanitor(store TokenPurger, interval time.Duration) *TokenJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenJanitor{store: store, interval: interval, logger: util.ComponentLogger("token-janitor")}
}

// Start purges once immediately and then on every tick until ctx is done
func (j *TokenJanitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		j.purge(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (j *TokenJanitor) purge(ctx context.Context) {
	n, err := j.store.PurgeExpiredTokens(ctx, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			j.logger.Warn("Failed to purge access tokens", zap.Error(err))
		}
		return
	}
	if n > 0 {
		j.logger.Info("Purged access tokens", zap.Int64("count", n))
	}
}

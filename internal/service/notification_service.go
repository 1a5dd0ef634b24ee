package service

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// NotificationService turns order events into admin notifications.
// Each event is recorded at most once.
type NotificationService struct {
	store  NotificationStore
	logger *zap.Logger
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store, logger: util.ComponentLogger("notifications")}
}

// HandleOrderPlaced records a new-order notice
func (ns *NotificationService) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationService.HandleOrderPlaced")
	defer span.End()

	return ns.record(ctx, event.BaseEvent, &models.AdminNotification{
		Title:   "New order " + event.OrderNumber,
		Message: fmt.Sprintf("Order %s was placed with %d item(s), total %s", event.OrderNumber, len(event.Items), event.Total.StringFixed(2)),
		OrderID: &event.OrderID,
	})
}

// HandleOrderCancelled records a cancellation notice
func (ns *NotificationService) HandleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationService.HandleOrderCancelled")
	defer span.End()

	return ns.record(ctx, event.BaseEvent, &models.AdminNotification{
		Title:   "Order " + event.OrderNumber + " cancelled",
		Message: fmt.Sprintf("Order %s was cancelled by %s", event.OrderNumber, event.CancelledBy),
		OrderID: &event.OrderID,
	})
}

// HandleRefundRequested records a refund notice
func (ns *NotificationService) HandleRefundRequested(ctx context.Context, event *models.RefundRequestedEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationService.HandleRefundRequested")
	defer span.End()

	return ns.record(ctx, event.BaseEvent, &models.AdminNotification{
		Title:   "Refund for " + event.OrderNumber,
		Message: fmt.Sprintf("Refund of %s recorded for order %s (%s)", event.Amount.StringFixed(2), event.OrderNumber, event.Status),
		OrderID: &event.OrderID,
	})
}

func (ns *NotificationService) record(ctx context.Context, base models.BaseEvent, n *models.AdminNotification) error {
	processed, err := ns.store.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		ns.logger.Info("Event already processed", zap.String("event_id", base.EventID))
		return nil
	}

	n.EventID = base.EventID
	n.Type = base.EventType
	recorded, err := ns.store.RecordNotification(ctx, base.EventType, n)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	if recorded {
		util.NotificationsRecordedTotal.WithLabelValues(base.EventType).Inc()
		ns.logger.Info("Notification recorded", zap.String("event_id", base.EventID), zap.String("event_type", base.EventType))
	}
	return nil
}

// List returns the newest notifications
func (ns *NotificationService) List(ctx context.Context, limit int) ([]models.AdminNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = notificationsOnPage
	}
	notes, err := ns.store.ListNotifications(ctx, limit)
	return notes, mapStoreError(err)
}

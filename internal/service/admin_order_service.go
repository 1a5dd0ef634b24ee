package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AdminOrderService handles back-office order management
type AdminOrderService struct {
	orders OrderStore
	users  UserStore
	events EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

func NewAdminOrderService(orders OrderStore, users UserStore, events EventPublisher) *AdminOrderService {
	return &AdminOrderService{
		orders: orders,
		users:  users,
		events: events,
		logger: util.ComponentLogger("admin-orders"),
		now:    time.Now,
	}
}

// AdminOrdersQuery filters the admin order list
type AdminOrdersQuery struct {
	Status  string `form:"status" json:"status" validate:"omitempty,oneof=all pending processing completed cancelled"`
	Search  string `form:"search" json:"search" validate:"max=255"`
	Page    int    `form:"page" json:"page" validate:"gte=0"`
	PerPage int    `form:"per_page" json:"per_page" validate:"gte=0,max=100"`
}

func (s *AdminOrderService) ListOrders(ctx context.Context, q AdminOrdersQuery) (*Page[models.OrderSummary], error) {
	ctx, span := util.StartSpan(ctx, "AdminOrderService.ListOrders")
	defer span.End()

	if err := validateStruct(&q); err != nil {
		return nil, err
	}

	filter := models.OrderFilter{Search: strings.TrimSpace(q.Search), Page: q.Page, PerPage: q.PerPage}
	if filter.PerPage == 0 {
		filter.PerPage = 15
	}
	if q.Status != StatusFilterAll {
		filter.Status = q.Status
	}

	orders, total, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, mapStoreError(err)
	}
	page := newPage(orders, total, filter.Page, filter.PerPage)
	return &page, nil
}

// GetOrder retrieves any order with items and the customer's name
func (s *AdminOrderService) GetOrder(ctx context.Context, orderID int64) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "AdminOrderService.GetOrder", attribute.Int64("order_id", orderID))
	defer span.End()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	items, err := s.orders.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	detail := &OrderDetail{Order: order, Items: items}
	if user, err := s.users.GetUserByID(ctx, order.UserID); err == nil {
		detail.CustomerName = user.Name
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, mapStoreError(err)
	}
	return detail, nil
}

// UpdateStatus applies an admin status change. Setting the current status
// again is a no-op; moves outside the transition table are rejected.
func (s *AdminOrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "AdminOrderService.UpdateStatus",
		attribute.Int64("order_id", orderID),
		attribute.String("status", status))
	defer span.End()

	if !models.ValidOrderStatus(status) {
		return nil, NewValidationError("status", "status must be one of: pending, processing, completed, cancelled")
	}

	current, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if current.Status == status {
		return current, nil
	}

	order, from, err := s.orders.TransitionOrder(ctx, orderID, 0, status)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, store.ErrInvalidTransition):
		return nil, ErrInvalidStatusTransition
	case err != nil:
		util.RecordError(span, err)
		return nil, mapStoreError(err)
	}

	util.OrderStatusChangesTotal.WithLabelValues(from, status).Inc()
	s.logger.Info("Order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", from),
		zap.String("to", status))

	if status == models.OrderStatusCancelled {
		util.OrdersCancelledTotal.WithLabelValues(models.RoleAdmin).Inc()
		publishCancelled(ctx, s.events, s.logger, order, models.RoleAdmin, s.now())
	}

	if s.events != nil {
		event := &models.OrderStatusChangedEvent{
			BaseEvent:   models.NewBaseEvent(models.EventTypeOrderStatusChanged, s.now()),
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			From:        from,
			To:          status,
		}
		if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}

	return order, nil
}

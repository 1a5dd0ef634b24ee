package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RefundService is admin management of refunds. Refunds do not change
// the status of their order.
type RefundService struct {
	refunds RefundStore
	orders  OrderStore
	events  EventPublisher
	logger  *zap.Logger
	now     func() time.Time
}

func NewRefundService(refunds RefundStore, orders OrderStore, events EventPublisher) *RefundService {
	return &RefundService{
		refunds: refunds,
		orders:  orders,
		events:  events,
		logger:  util.ComponentLogger("refunds"),
		now:     time.Now,
	}
}

// RefundInput creates or edits a refund
type RefundInput struct {
	OrderID    int64           `json:"order_id" validate:"required,gt=0"`
	UserID     int64           `json:"user_id" validate:"gte=0"`
	Amount     decimal.Decimal `json:"amount" validate:"gte=0,lte=99999999"`
	Reason     string          `json:"reason" validate:"required,max=2000"`
	Status     string          `json:"status" validate:"omitempty,oneof=Pending Approved Rejected"`
	AdminNotes string          `json:"admin_notes" validate:"max=2000"`
}

func (s *RefundService) List(ctx context.Context) ([]models.Refund, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.List")
	defer span.End()

	refunds, err := s.refunds.ListRefunds(ctx)
	return refunds, mapStoreError(err)
}

func (s *RefundService) Get(ctx context.Context, id int64) (*models.Refund, error) {
	r, err := s.refunds.GetRefund(ctx, id)
	return r, mapStoreError(err)
}

func (s *RefundService) Create(ctx context.Context, in RefundInput) (*models.Refund, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.Create")
	defer span.End()

	order, err := s.checkInput(ctx, &in)
	if err != nil {
		return nil, err
	}

	r := &models.Refund{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Amount:      in.Amount.Round(2),
		Reason:      strings.TrimSpace(in.Reason),
		Status:      in.Status,
		AdminNotes:  optional(in.AdminNotes),
		OrderNumber: order.OrderNumber,
	}
	if r.Status == "" {
		r.Status = models.RefundStatusPending
	}

	if err := s.refunds.CreateRefund(ctx, r); err != nil {
		return nil, mapStoreError(err)
	}
	s.logger.Info("Refund recorded", zap.Int64("refund_id", r.ID), zap.Int64("order_id", r.OrderID))

	if s.events != nil {
		event := &models.RefundRequestedEvent{
			BaseEvent:   models.NewBaseEvent(models.EventTypeRefundRequested, s.now()),
			RefundID:    r.ID,
			OrderID:     r.OrderID,
			OrderNumber: r.OrderNumber,
			Amount:      r.Amount,
			Status:      r.Status,
		}
		if err := s.events.PublishRefundRequested(ctx, event); err != nil {
			s.logger.Error("Failed to publish RefundRequested event", zap.Int64("refund_id", r.ID), zap.Error(err))
		}
	}
	return r, nil
}

func (s *RefundService) Update(ctx context.Context, id int64, in RefundInput) (*models.Refund, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.Update")
	defer span.End()

	r, err := s.refunds.GetRefund(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if in.OrderID == 0 {
		in.OrderID = r.OrderID
	}
	if in.OrderID != r.OrderID {
		return nil, NewValidationError("order_id", "order_id cannot be changed")
	}

	if _, err := s.checkInput(ctx, &in); err != nil {
		return nil, err
	}

	r.Amount = in.Amount.Round(2)
	r.Reason = strings.TrimSpace(in.Reason)
	if in.Status != "" {
		r.Status = in.Status
	}
	r.AdminNotes = optional(in.AdminNotes)

	if err := s.refunds.UpdateRefund(ctx, r); err != nil {
		return nil, mapStoreError(err)
	}
	return r, nil
}

func (s *RefundService) Delete(ctx context.Context, id int64) error {
	return mapStoreError(s.refunds.DeleteRefund(ctx, id))
}

// checkInput validates the refund against its order: the order must
// exist, belong to the given user if one is named, and cover the amount.
func (s *RefundService) checkInput(ctx context.Context, in *RefundInput) (*models.Order, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(ctx, in.OrderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewValidationError("order_id", "selected order is invalid")
	}
	if err != nil {
		return nil, mapStoreError(err)
	}

	ve := &ValidationError{}
	if in.UserID != 0 && in.UserID != order.UserID {
		ve.Add("user_id", "user_id does not match the order's customer")
	}
	if in.Amount.GreaterThan(order.Total) {
		ve.Add("amount", "amount may not exceed the order total of "+order.Total.StringFixed(2))
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return order, nil
}

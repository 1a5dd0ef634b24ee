package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// WarningCartNotCleared is returned when an order committed but the cart
// could not be emptied afterwards.
const WarningCartNotCleared = "cart_not_cleared"

// OrderConfig tunes the checkout workflow
type OrderConfig struct {
	LockTTL             time.Duration
	OrderNumberAttempts int
	EnforceCatalogPrice bool
	DefaultPageSize     int
}

// OrderService handles checkout and customer order operations
type OrderService struct {
	products  ProductReader
	orders    OrderStore
	carts     CartClearer
	addresses DefaultAddressReader
	locker    CheckoutLocker
	events    EventPublisher
	cfg       OrderConfig
	logger    *zap.Logger

	now        func() time.Time
	randSuffix func() int
}

// NewOrderService creates a new order service
func NewOrderService(
	products ProductReader,
	orders OrderStore,
	carts CartClearer,
	addresses DefaultAddressReader,
	locker CheckoutLocker,
	events EventPublisher,
	cfg OrderConfig,
) *OrderService {
	if cfg.OrderNumberAttempts < 1 {
		cfg.OrderNumberAttempts = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	return &OrderService{
		products:   products,
		orders:     orders,
		carts:      carts,
		addresses:  addresses,
		locker:     locker,
		events:     events,
		cfg:        cfg,
		logger:     util.ComponentLogger("orders"),
		now:        time.Now,
		randSuffix: func() int { return rand.Intn(1000) },
	}
}

// PlaceOrderRequest represents a checkout request
type PlaceOrderRequest struct {
	ShippingAddress *AddressInput    `json:"shipping_address"`
	ShippingOption  string           `json:"shipping_option" validate:"required,shipping_option"`
	PaymentMethod   string           `json:"payment_method" validate:"required,payment_method"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	VoucherCode     string           `json:"voucher_code" validate:"max=64"`
	IdempotencyKey  string           `json:"-" validate:"max=255"`
}

// OrderItemInput represents an item in a checkout request
type OrderItemInput struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,min=1,max=10000"`
	Price     decimal.Decimal `json:"price" validate:"gte=0,lte=99999999"`
}

// PlaceOrderResult represents the outcome of a checkout
type PlaceOrderResult struct {
	Order    *models.Order
	Items    []models.OrderLineItem
	Warnings []string
	Replayed bool
}

// OrderDetail is an order with its line items
type OrderDetail struct {
	Order        *models.Order
	Items        []models.OrderLineItem
	CustomerName string
}

// PlaceOrder validates, prices and atomically persists an order, then
// clears the user's cart. A failure before commit leaves no trace; a cart
// that cannot be cleared after commit is reported as a warning.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) (*PlaceOrderResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder", attribute.Int64("user_id", userID))
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if err := validateStruct(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	release, err := s.lockCheckout(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	if req.IdempotencyKey != "" {
		existing, err := s.orders.GetOrderByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err != nil {
			util.RecordError(span, err)
			return nil, mapStoreError(err)
		}
		if existing != nil {
			s.logger.Info("Duplicate checkout request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("order_id", existing.ID))
			return s.replay(ctx, existing)
		}
	}

	address, err := s.resolveAddress(ctx, userID, req.ShippingAddress)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("address").Inc()
		return nil, err
	}

	if err := s.checkProducts(ctx, req.Items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	lines := make([]PriceLine, len(req.Items))
	items := make([]models.OrderLineItem, len(req.Items))
	for i, it := range req.Items {
		lines[i] = PriceLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.Price}
		items[i] = models.OrderLineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.Round(2),
			Subtotal:  lines[i].LineTotal(),
		}
	}

	price := CalculatePrice(lines, req.ShippingOption, req.PaymentMethod, req.VoucherCode)
	if price.Subtotal.GreaterThan(MaxAmount) || price.Total.GreaterThan(MaxAmount) {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, NewValidationError("items", "order total may not be greater than "+MaxAmount.StringFixed(2))
	}

	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		ShippingAddress: address,
		ShippingOption:  req.ShippingOption,
		ShippingFee:     price.ShippingFee,
		PaymentMethod:   req.PaymentMethod,
		PaymentFee:      price.PaymentFee,
		Subtotal:        price.Subtotal,
		VoucherDiscount: price.VoucherDiscount,
		Total:           price.Total,
	}
	if code := strings.TrimSpace(req.VoucherCode); code != "" {
		order.VoucherCode = &code
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		order.IdempotencyKey = &key
	}

	if err := s.persist(ctx, order, items); err != nil {
		util.RecordError(span, err)
		if errors.Is(err, store.ErrDuplicateIdempotency) {
			existing, lookupErr := s.orders.GetOrderByIdempotencyKey(ctx, userID, req.IdempotencyKey)
			if lookupErr == nil && existing != nil {
				return s.replay(ctx, existing)
			}
		}
		switch {
		case errors.Is(err, store.ErrInsufficientStock):
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
		case errors.Is(err, store.ErrProductUnavailable):
			util.OrdersFailedTotal.WithLabelValues("product_unavailable").Inc()
		default:
			util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
			s.logger.Error("Failed to persist order", zap.Int64("user_id", userID), zap.Error(err))
		}
		return nil, mapStoreError(err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)))

	result := &PlaceOrderResult{Order: order, Items: items}

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		util.CartClearFailuresTotal.Inc()
		s.logger.Error("Failed to clear cart after checkout",
			zap.Int64("order_id", order.ID),
			zap.Int64("user_id", userID),
			zap.Error(err))
		result.Warnings = append(result.Warnings, WarningCartNotCleared)
	}

	s.publishOrderPlaced(ctx, order, items)

	return result, nil
}

// lockCheckout takes the per-user checkout lock. When the lock backend is
// down the checkout proceeds unserialised; the order transaction is
// still atomic.
func (s *OrderService) lockCheckout(ctx context.Context, userID int64) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	key := fmt.Sprintf("checkout:%d", userID)
	owner := uuid.New().String()

	ok, err := s.locker.AcquireLock(ctx, key, owner, s.cfg.LockTTL)
	if err != nil {
		s.logger.Warn("Checkout lock unavailable, continuing without it",
			zap.Int64("user_id", userID), zap.Error(err))
		return noop, nil
	}
	if !ok {
		util.OrdersFailedTotal.WithLabelValues("locked").Inc()
		return nil, ErrCheckoutInProgress
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.locker.ReleaseLock(releaseCtx, key, owner); err != nil {
			s.logger.Warn("Failed to release checkout lock", zap.Int64("user_id", userID), zap.Error(err))
		}
	}, nil
}

func (s *OrderService) resolveAddress(ctx context.Context, userID int64, in *AddressInput) (models.AddressSnapshot, error) {
	if in != nil {
		return in.snapshot(), nil
	}

	addr, err := s.addresses.GetDefaultAddress(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.AddressSnapshot{}, NewValidationError("shipping_address", "shipping_address is required")
	}
	if err != nil {
		return models.AddressSnapshot{}, mapStoreError(err)
	}
	return addr.Snapshot(), nil
}

// checkProducts verifies every line references an active product with
// enough stock, and when configured that the price matches the catalog.
func (s *OrderService) checkProducts(ctx context.Context, items []OrderItemInput) error {
	ids := make([]int64, 0, len(items))
	requested := make(map[int64]int, len(items))
	for _, it := range items {
		if _, seen := requested[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		requested[it.ProductID] += it.Quantity
	}

	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return mapStoreError(err)
	}
	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	ve := &ValidationError{}
	for i, it := range items {
		p, ok := byID[it.ProductID]
		if !ok || !p.IsActive {
			ve.Add(fmt.Sprintf("items.%d.product_id", i), "selected product is invalid")
			continue
		}
		if s.cfg.EnforceCatalogPrice && !it.Price.Round(2).Equal(p.Price) {
			ve.Add(fmt.Sprintf("items.%d.price", i), "price does not match the current catalog price")
		}
	}
	if err := ve.OrNil(); err != nil {
		return err
	}

	for _, id := range ids {
		if p := byID[id]; p.Stock < requested[id] {
			return fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, p.Name, p.Stock)
		}
	}
	return nil
}

// persist writes the order, regenerating the order number when the
// uniqueness constraint rejects it.
func (s *OrderService) persist(ctx context.Context, order *models.Order, items []models.OrderLineItem) error {
	var err error
	for attempt := 1; attempt <= s.cfg.OrderNumberAttempts; attempt++ {
		order.OrderNumber = s.generateOrderNumber()

		err = s.orders.PlaceOrder(ctx, order, items)
		if !errors.Is(err, store.ErrDuplicateOrderNumber) {
			return err
		}

		util.OrderNumberCollisionsTotal.Inc()
		s.logger.Warn("Order number collision, regenerating",
			zap.String("order_number", order.OrderNumber),
			zap.Int("attempt", attempt))
	}
	return err
}

func (s *OrderService) generateOrderNumber() string {
	return fmt.Sprintf("ORD%s%03d", s.now().UTC().Format("20060102150405"), s.randSuffix()%1000)
}

func (s *OrderService) replay(ctx context.Context, order *models.Order) (*PlaceOrderResult, error) {
	items, err := s.orders.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &PlaceOrderResult{Order: order, Items: items, Replayed: true}, nil
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, order *models.Order, items []models.OrderLineItem) {
	if s.events == nil {
		return
	}

	data := make([]models.OrderItemData, len(items))
	for i, it := range items {
		data[i] = models.OrderItemData{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}
	}

	event := &models.OrderPlacedEvent{
		BaseEvent:   models.NewBaseEvent(models.EventTypeOrderPlaced, s.now()),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		Items:       data,
	}

	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

// GetOrder retrieves one of the user's orders with its line items
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder", attribute.Int64("order_id", orderID))
	defer span.End()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if order.UserID != userID {
		return nil, ErrNotFound
	}

	items, err := s.orders.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	return &OrderDetail{Order: order, Items: items}, nil
}

// Date filters accepted by ListRecentOrders
const (
	DateFilterLastWeek    = "last_week"
	DateFilterLastMonth   = "last_month"
	DateFilterLast3Months = "last_3_months"
	DateFilterLast6Months = "last_6_months"
	DateFilterLastYear    = "last_year"
)

// StatusFilterAll disables status filtering
const StatusFilterAll = "all"

// RecentOrdersQuery filters a user's order history
type RecentOrdersQuery struct {
	Status     string `form:"status" json:"status" validate:"omitempty,oneof=all pending processing completed cancelled"`
	DateFilter string `form:"date_filter" json:"date_filter" validate:"omitempty,oneof=all last_week last_month last_3_months last_6_months last_year"`
	Search     string `form:"search" json:"search" validate:"max=255"`
	Page       int    `form:"page" json:"page" validate:"gte=0"`
	PerPage    int    `form:"per_page" json:"per_page" validate:"gte=0,max=100"`
}

// ListRecentOrders returns one page of the user's orders, newest first
func (s *OrderService) ListRecentOrders(ctx context.Context, userID int64, q RecentOrdersQuery) (*Page[models.OrderSummary], error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListRecentOrders")
	defer span.End()

	if err := validateStruct(&q); err != nil {
		return nil, err
	}

	filter := models.OrderFilter{
		UserID:  userID,
		Search:  strings.TrimSpace(q.Search),
		Page:    q.Page,
		PerPage: q.PerPage,
	}
	if filter.PerPage == 0 {
		filter.PerPage = s.cfg.DefaultPageSize
	}
	if q.Status != StatusFilterAll {
		filter.Status = q.Status
	}
	if since, ok := dateFilterSince(q.DateFilter, s.now()); ok {
		filter.Since = &since
	}

	orders, total, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, mapStoreError(err)
	}

	page := newPage(orders, total, filter.Page, filter.PerPage)
	return &page, nil
}

func dateFilterSince(filter string, now time.Time) (time.Time, bool) {
	switch filter {
	case DateFilterLastWeek:
		return now.AddDate(0, 0, -7), true
	case DateFilterLastMonth:
		return now.AddDate(0, -1, 0), true
	case DateFilterLast3Months:
		return now.AddDate(0, -3, 0), true
	case DateFilterLast6Months:
		return now.AddDate(0, -6, 0), true
	case DateFilterLastYear:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// CancelOrder cancels one of the user's pending or processing orders and
// returns its items to stock.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder", attribute.Int64("order_id", orderID))
	defer span.End()

	order, _, err := s.orders.TransitionOrder(ctx, orderID, userID, models.OrderStatusCancelled)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, store.ErrInvalidTransition):
		return nil, ErrOrderNotCancellable
	case err != nil:
		util.RecordError(span, err)
		return nil, mapStoreError(err)
	}

	util.OrdersCancelledTotal.WithLabelValues(models.RoleCustomer).Inc()
	s.logger.Info("Order cancelled by customer", zap.Int64("order_id", order.ID))

	publishCancelled(ctx, s.events, s.logger, order, models.RoleCustomer, s.now())
	return order, nil
}

func publishCancelled(ctx context.Context, events EventPublisher, logger *zap.Logger, order *models.Order, by string, at time.Time) {
	if events == nil {
		return
	}
	event := &models.OrderCancelledEvent{
		BaseEvent:   models.NewBaseEvent(models.EventTypeOrderCancelled, at),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		CancelledBy: by,
	}
	if err := events.PublishOrderCancelled(ctx, event); err != nil {
		logger.Error("Failed to publish OrderCancelled event", zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

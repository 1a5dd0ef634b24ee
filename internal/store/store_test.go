package store

import (
	"context"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(sqlx.NewDb(db, "postgres")), mock
}

func sampleOrder() (*models.Order, []models.OrderLineItem) {
	order := &models.Order{
		OrderNumber:    "ORD20240105103000123",
		UserID:         1,
		Status:         models.OrderStatusPending,
		ShippingOption: "standard",
		ShippingFee:    decimal.NewFromInt(125),
		PaymentMethod:  "cash-on-delivery",
		PaymentFee:     decimal.Zero,
		Subtotal:       decimal.NewFromInt(200),
		Total:          decimal.NewFromInt(325),
	}
	items := []models.OrderLineItem{
		{ProductID: 42, Quantity: 2, Price: decimal.NewFromInt(100), Subtotal: decimal.NewFromInt(200)},
	}
	return order, items
}

func orderRows(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "order_number", "user_id", "status", "shipping_address", "shipping_option",
		"shipping_fee", "payment_method", "payment_fee", "subtotal", "voucher_code", "voucher_discount",
		"total", "idempotency_key", "created_at", "updated_at",
	}).AddRow(
		9, "ORD20240105103000123", 1, status, []byte(`{"name":"Ana"}`), "standard",
		"125.00", "cash-on-delivery", "0.00", "200.00", nil, "0.00",
		"325.00", nil, now, now,
	)
}

func TestPlaceOrderCommits(t *testing.T) {
	s, mock := newMockStore(t)
	order, items := sampleOrder()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
	mock.ExpectExec("UPDATE products SET stock = stock - ").
		WithArgs(int64(2), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO order_items").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectCommit()

	err := s.PlaceOrder(context.Background(), order, items)
	require.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, int64(7), items[0].OrderID)
	assert.Equal(t, int64(100), items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderRollsBackOnInsufficientStock(t *testing.T) {
	s, mock := newMockStore(t)
	order, items := sampleOrder()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
	mock.ExpectExec("UPDATE products SET stock = stock - ").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT is_active FROM products").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(true))
	mock.ExpectRollback()

	err := s.PlaceOrder(context.Background(), order, items)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Zero(t, order.ID)
	assert.Zero(t, items[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderReportsVanishedProduct(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
	}{
		{"deleted", sqlmock.NewRows([]string{"is_active"})},
		{"deactivated", sqlmock.NewRows([]string{"is_active"}).AddRow(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			order, items := sampleOrder()
			now := time.Now()

			mock.ExpectBegin()
			mock.ExpectQuery("INSERT INTO orders").
				WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
			mock.ExpectExec("UPDATE products SET stock = stock - ").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery("SELECT is_active FROM products").
				WithArgs(int64(42)).
				WillReturnRows(tt.rows)
			mock.ExpectRollback()

			err := s.PlaceOrder(context.Background(), order, items)
			assert.ErrorIs(t, err, ErrProductUnavailable)
			assert.NotErrorIs(t, err, ErrInsufficientStock)
			assert.Zero(t, order.ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPlaceOrderMapsDuplicateOrderNumber(t *testing.T) {
	s, mock := newMockStore(t)
	order, items := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_order_number_key"})
	mock.ExpectRollback()

	err := s.PlaceOrder(context.Background(), order, items)
	assert.ErrorIs(t, err, ErrDuplicateOrderNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionOrderCancelRestocks(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders o WHERE o.id = \$1 AND o.user_id = \$2 FOR UPDATE`).
		WithArgs(int64(9), int64(1)).
		WillReturnRows(orderRows(models.OrderStatusPending))
	mock.ExpectExec("UPDATE products p").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE orders SET status").
		WithArgs(models.OrderStatusCancelled, int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "updated_at"}).AddRow(models.OrderStatusCancelled, time.Now()))
	mock.ExpectCommit()

	order, from, err := s.TransitionOrder(context.Background(), 9, 1, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, from)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, "Ana", order.ShippingAddress.Name)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(325)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionOrderRejectsTerminalStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders o WHERE o.id").
		WillReturnRows(orderRows(models.OrderStatusCompleted))
	mock.ExpectRollback()

	_, _, err := s.TransitionOrder(context.Background(), 9, 1, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionOrderNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders o WHERE o.id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, _, err := s.TransitionOrder(context.Background(), 9, 2, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddToCartUpserts(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("ON CONFLICT \\(user_id, product_id\\)").
		WithArgs(int64(1), int64(42), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity", "created_at", "updated_at"}).
			AddRow(3, 1, 42, 5, now, now))

	entry, err := s.AddToCart(context.Background(), 1, 42, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordNotificationSkipsProcessedEvent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO processed_events").
		WithArgs("evt-1", models.EventTypeOrderPlaced).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	recorded, err := s.RecordNotification(context.Background(), models.EventTypeOrderPlaced,
		&models.AdminNotification{EventID: "evt-1"})
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProductReferenced(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM products").
		WithArgs(int64(42)).
		WillReturnError(&pq.Error{Code: "23503"})

	err := s.DeleteProduct(context.Background(), 42)
	assert.ErrorIs(t, err, ErrReferenced)
}

func TestPageBounds(t *testing.T) {
	limit, offset := pageBounds(0, 0)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pageBounds(3, 20)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 40, offset)
}

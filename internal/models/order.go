package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusCancelled},
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
// Completed and cancelled orders are terminal.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order represents a placed order
type Order struct {
	ID              int64           `db:"id" json:"id"`
	OrderNumber     string          `db:"order_number" json:"order_number"`
	UserID          int64           `db:"user_id" json:"user_id"`
	Status          string          `db:"status" json:"status"`
	ShippingAddress AddressSnapshot `db:"shipping_address" json:"shipping_address"`
	ShippingOption  string          `db:"shipping_option" json:"shipping_option"`
	ShippingFee     decimal.Decimal `db:"shipping_fee" json:"shipping_fee"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	PaymentFee      decimal.Decimal `db:"payment_fee" json:"payment_fee"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	VoucherCode     *string         `db:"voucher_code" json:"voucher_code,omitempty"`
	VoucherDiscount decimal.Decimal `db:"voucher_discount" json:"voucher_discount"`
	Total           decimal.Decimal `db:"total" json:"total"`
	IdempotencyKey  *string         `db:"idempotency_key" json:"-"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderLineItem represents one product line of an order. Price is the
// unit price captured when the order was placed.
type OrderLineItem struct {
	ID           int64           `db:"id" json:"id"`
	OrderID      int64           `db:"order_id" json:"order_id"`
	ProductID    int64           `db:"product_id" json:"product_id"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Subtotal     decimal.Decimal `db:"subtotal" json:"subtotal"`
	ProductName  *string         `db:"product_name" json:"product_name,omitempty"`
	ProductImage *string         `db:"product_image" json:"product_image,omitempty"`
}

// OrderSummary is a listing row with the customer's name and item count
type OrderSummary struct {
	Order
	CustomerName string `db:"customer_name" json:"customer_name"`
	ItemCount    int    `db:"item_count" json:"item_count"`
}

// OrderFilter narrows order listings. A zero UserID lists every user.
type OrderFilter struct {
	UserID  int64
	Status  string
	Since   *time.Time
	Search  string
	Page    int
	PerPage int
}

// Refund statuses
const (
	RefundStatusPending  = "Pending"
	RefundStatusApproved = "Approved"
	RefundStatusRejected = "Rejected"
)

// Refund is an admin-managed refund against an order
type Refund struct {
	ID           int64           `db:"id" json:"id"`
	OrderID      int64           `db:"order_id" json:"order_id"`
	UserID       int64           `db:"user_id" json:"user_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Reason       string          `db:"reason" json:"reason"`
	Status       string          `db:"status" json:"status"`
	AdminNotes   *string         `db:"admin_notes" json:"admin_notes,omitempty"`
	OrderNumber  string          `db:"order_number" json:"order_number"`
	CustomerName string          `db:"customer_name" json:"customer_name"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// ValidRefundStatus reports whether s is a known refund status.
func ValidRefundStatus(s string) bool {
	return s == RefundStatusPending || s == RefundStatusApproved || s == RefundStatusRejected
}

// MonthStats aggregates activity for one calendar month
type MonthStats struct {
	Orders    int             `db:"orders"`
	Customers int             `db:"customers"`
	Products  int             `db:"products"`
	Revenue   decimal.Decimal `db:"revenue"`
}

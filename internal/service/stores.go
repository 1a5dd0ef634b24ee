package service

import (
	"context"
	"time"

	"storefront/internal/models"
)

// ProductReader loads catalog products
type ProductReader interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// ProductStore is the full catalog repository
type ProductStore interface {
	ProductReader
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error)
	LatestActiveProducts(ctx context.Context, limit int) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// CartStore persists cart entries
type CartStore interface {
	ListCart(ctx context.Context, userID int64) ([]models.CartLine, error)
	GetCartEntry(ctx context.Context, userID, productID int64) (*models.CartEntry, error)
	AddToCart(ctx context.Context, userID, productID int64, quantity int) (*models.CartEntry, error)
	SetCartQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveFromCart(ctx context.Context, userID, productID int64) error
	ClearCart(ctx context.Context, userID int64) error
	CountCart(ctx context.Context, userID int64) (int, error)
}

// CartClearer empties a user's cart
type CartClearer interface {
	ClearCart(ctx context.Context, userID int64) error
}

// WishlistStore persists saved products
type WishlistStore interface {
	ListWishlist(ctx context.Context, userID int64) ([]models.WishlistItem, error)
	AddToWishlist(ctx context.Context, userID, productID int64) error
	RemoveFromWishlist(ctx context.Context, userID, productID int64) error
	CountWishlist(ctx context.Context, userID int64) (int, error)
}

// AddressStore persists address books
type AddressStore interface {
	ListAddresses(ctx context.Context, userID int64) ([]models.Address, error)
	GetAddress(ctx context.Context, userID, id int64) (*models.Address, error)
	GetDefaultAddress(ctx context.Context, userID int64) (*models.Address, error)
	CreateAddress(ctx context.Context, addr *models.Address) error
	UpdateAddress(ctx context.Context, addr *models.Address) error
	DeleteAddress(ctx context.Context, userID, id int64) error
}

// DefaultAddressReader resolves the address used when checkout omits one
type DefaultAddressReader interface {
	GetDefaultAddress(ctx context.Context, userID int64) (*models.Address, error)
}

// OrderStore persists orders and their line items
type OrderStore interface {
	PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderLineItem) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderLineItem, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderSummary, int, error)
	TransitionOrder(ctx context.Context, orderID, ownerID int64, to string) (*models.Order, string, error)
}

// UserStore persists accounts
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsersByRole(ctx context.Context, role string) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64, role string) error
}

// TokenStore persists issued access tokens
type TokenStore interface {
	CreateAccessToken(ctx context.Context, t *models.AccessToken) error
	GetAccessToken(ctx context.Context, id string) (*models.AccessToken, error)
	RevokeAccessToken(ctx context.Context, id string, at time.Time) error
}

// RefundStore persists refunds
type RefundStore interface {
	ListRefunds(ctx context.Context) ([]models.Refund, error)
	GetRefund(ctx context.Context, id int64) (*models.Refund, error)
	CreateRefund(ctx context.Context, r *models.Refund) error
	UpdateRefund(ctx context.Context, r *models.Refund) error
	DeleteRefund(ctx context.Context, id int64) error
}

// NotificationStore persists admin notifications
type NotificationStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	RecordNotification(ctx context.Context, eventType string, n *models.AdminNotification) (bool, error)
	ListNotifications(ctx context.Context, limit int) ([]models.AdminNotification, error)
}

// CheckoutLocker serialises checkouts of one user
type CheckoutLocker interface {
	AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, owner string) error
}

// RateLimiter counts attempts in fixed windows
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetWindow(ctx context.Context, key string) error
}

// EventPublisher publishes order domain events
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishRefundRequested(ctx context.Context, event *models.RefundRequestedEvent) error
}

// Page is one page of a listing
type Page[T any] struct {
	Data        []T `json:"data"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

func newPage[T any](data []T, total, page, perPage int) Page[T] {
	if page < 1 {
		page = 1
	}
	last := 1
	if perPage > 0 && total > 0 {
		last = (total + perPage - 1) / perPage
	}
	return Page[T]{Data: data, Total: total, PerPage: perPage, CurrentPage: page, LastPage: last}
}

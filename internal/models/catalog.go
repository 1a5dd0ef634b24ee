package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	Image       *string         `db:"image" json:"image,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Available reports whether the product can currently be bought.
func (p *Product) Available() bool {
	return p.IsActive && p.Stock > 0
}

// Stock status labels shown in the admin catalog
const (
	StockStatusOut = "Out of Stock"
	StockStatusLow = "Low Stock"
	StockStatusIn  = "In Stock"
)

// StockStatus labels a stock level against the low-stock threshold.
func StockStatus(stock, lowThreshold int) string {
	switch {
	case stock <= 0:
		return StockStatusOut
	case stock <= lowThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// ProductFilter narrows catalog listings
type ProductFilter struct {
	Search     string
	ActiveOnly bool
	Page       int
	PerPage    int
}

// CartEntry is one product line in a user's cart
type CartEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartLine is a cart entry joined with its product
type CartLine struct {
	CartEntry
	Name     string          `db:"name"`
	Price    decimal.Decimal `db:"price"`
	Stock    int             `db:"stock"`
	IsActive bool            `db:"is_active"`
	Image    *string         `db:"image"`
}

// WishlistItem is a product saved by a user
type WishlistItem struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	ProductID int64           `db:"product_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Stock     int             `db:"stock"`
	IsActive  bool            `db:"is_active"`
	Image     *string         `db:"image"`
	CreatedAt time.Time       `db:"created_at"`
}

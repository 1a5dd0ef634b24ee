package store

import (
	"context"

	"storefront/internal/models"
)

// ListCart returns the user's cart joined with product data
func (s *Store) ListCart(ctx context.Context, userID int64) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := s.db.SelectContext(ctx, &lines, `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at,
		       p.name, p.price, p.stock, p.is_active, p.image
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id`, userID)
	return lines, err
}

// GetCartEntry retrieves the user's entry for a product
func (s *Store) GetCartEntry(ctx context.Context, userID, productID int64) (*models.CartEntry, error) {
	var entry models.CartEntry
	err := s.db.GetContext(ctx, &entry,
		"SELECT id, user_id, product_id, quantity, created_at, updated_at FROM carts WHERE user_id = $1 AND product_id = $2",
		userID, productID)
	if err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

// AddToCart inserts an entry or increments the quantity of the existing one
func (s *Store) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*models.CartEntry, error) {
	var entry models.CartEntry
	err := s.db.GetContext(ctx, &entry, `
		INSERT INTO carts (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = carts.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, user_id, product_id, quantity, created_at, updated_at`,
		userID, productID, quantity)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SetCartQuantity replaces the quantity of an existing entry
func (s *Store) SetCartQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE carts SET quantity = $1, updated_at = NOW() WHERE user_id = $2 AND product_id = $3",
		quantity, userID, productID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// RemoveFromCart deletes one entry
func (s *Store) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM carts WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// ClearCart deletes every entry of the user
func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM carts WHERE user_id = $1", userID)
	return err
}

// CountCart sums the quantities in the user's cart
func (s *Store) CountCart(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COALESCE(SUM(quantity), 0) FROM carts WHERE user_id = $1", userID)
	return n, err
}

package store

import (
	"context"

	"storefront/internal/models"
)

func (s *Store) ListWishlist(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	items := []models.WishlistItem{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT w.id, w.user_id, w.product_id, w.created_at,
		       p.name, p.price, p.stock, p.is_active, p.image
		FROM wishlists w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id DESC`, userID)
	return items, err
}

// AddToWishlist is a no-op when the product is already saved
func (s *Store) AddToWishlist(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wishlists (user_id, product_id) VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING`, userID, productID)
	return err
}

func (s *Store) RemoveFromWishlist(ctx context.Context, userID, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) CountWishlist(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM wishlists WHERE user_id = $1", userID)
	return n, err
}

package store

import (
	"context"
	"time"

	"storefront/internal/models"
)

// MonthStats aggregates orders, new customers, new products and order
// revenue for records created in [from, to).
func (s *Store) MonthStats(ctx context.Context, from, to time.Time) (models.MonthStats, error) {
	var stats models.MonthStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2) AS orders,
			(SELECT COUNT(*) FROM users WHERE role = 'customer' AND created_at >= $1 AND created_at < $2) AS customers,
			(SELECT COUNT(*) FROM products WHERE created_at >= $1 AND created_at < $2) AS products,
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE created_at >= $1 AND created_at < $2) AS revenue`,
		from, to)
	return stats, err
}

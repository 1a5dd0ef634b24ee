package store

import (
	"context"

	"storefront/internal/models"
)

const refundSelect = `
	SELECT r.id, r.order_id, r.user_id, r.amount, r.reason, r.status, r.admin_notes,
	       r.created_at, r.updated_at, o.order_number, u.name AS customer_name
	FROM refunds r
	JOIN orders o ON o.id = r.order_id
	JOIN users u ON u.id = r.user_id`

func (s *Store) ListRefunds(ctx context.Context) ([]models.Refund, error) {
	refunds := []models.Refund{}
	err := s.db.SelectContext(ctx, &refunds, refundSelect+" ORDER BY r.created_at DESC, r.id DESC")
	return refunds, err
}

func (s *Store) GetRefund(ctx context.Context, id int64) (*models.Refund, error) {
	var refund models.Refund
	if err := s.db.GetContext(ctx, &refund, refundSelect+" WHERE r.id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &refund, nil
}

func (s *Store) CreateRefund(ctx context.Context, r *models.Refund) error {
	return s.db.QueryRowxContext(ctx, `
		INSERT INTO refunds (order_id, user_id, amount, reason, status, admin_notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		r.OrderID, r.UserID, r.Amount, r.Reason, r.Status, r.AdminNotes,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
}

// UpdateRefund changes the amount, reason, status and notes of a refund
func (s *Store) UpdateRefund(ctx context.Context, r *models.Refund) error {
	err := s.db.QueryRowxContext(ctx, `
		UPDATE refunds SET amount = $1, reason = $2, status = $3, admin_notes = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`,
		r.Amount, r.Reason, r.Status, r.AdminNotes, r.ID,
	).Scan(&r.UpdatedAt)
	return notFound(err)
}

func (s *Store) DeleteRefund(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM refunds WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

package store

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
)

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// RecordNotification marks the event processed and stores the
// notification in one transaction. It reports false without writing
// anything when the event was already processed.
func (s *Store) RecordNotification(ctx context.Context, eventType string, n *models.AdminNotification) (bool, error) {
	recorded := false
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
			n.EventID, eventType)
		if err != nil {
			return fmt.Errorf("failed to mark event processed: %w", err)
		}
		if affected, err := res.RowsAffected(); err != nil || affected == 0 {
			return err
		}

		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO admin_notifications (event_id, type, title, message, order_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			n.EventID, n.Type, n.Title, n.Message, n.OrderID,
		).Scan(&n.ID, &n.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
		recorded = true
		return nil
	})
	return recorded, err
}

// ListNotifications returns the newest notifications
func (s *Store) ListNotifications(ctx context.Context, limit int) ([]models.AdminNotification, error) {
	notes := []models.AdminNotification{}
	err := s.db.SelectContext(ctx, &notes, `
		SELECT id, event_id, type, title, message, order_id, created_at
		FROM admin_notifications
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	return notes, err
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
)

const orderColumns = `o.id, o.order_number, o.user_id, o.status, o.shipping_address, o.shipping_option,
	o.shipping_fee, o.payment_method, o.payment_fee, o.subtotal, o.voucher_code, o.voucher_discount,
	o.total, o.idempotency_key, o.created_at, o.updated_at`

// PlaceOrder persists an order header, its line items and the matching
// stock decrements in one transaction. Nothing is written if any step
// fails. On success order and items carry their generated IDs.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderLineItem) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO orders (order_number, user_id, status, shipping_address, shipping_option, shipping_fee,
			                    payment_method, payment_fee, subtotal, voucher_code, voucher_discount, total, idempotency_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id, created_at, updated_at`,
			order.OrderNumber, order.UserID, order.Status, order.ShippingAddress, order.ShippingOption,
			order.ShippingFee, order.PaymentMethod, order.PaymentFee, order.Subtotal, order.VoucherCode,
			order.VoucherDiscount, order.Total, order.IdempotencyKey,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return mapOrderInsertError(err)
		}

		for i := range items {
			item := &items[i]

			res, err := tx.ExecContext(ctx,
				"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND is_active AND stock >= $1",
				item.Quantity, item.ProductID)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n == 0 {
				return stockGuardError(ctx, tx, item.ProductID)
			}

			item.OrderID = order.ID
			err = tx.QueryRowxContext(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, price, subtotal)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id`,
				item.OrderID, item.ProductID, item.Quantity, item.Price, item.Subtotal,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		order.ID = 0
		for i := range items {
			items[i].ID, items[i].OrderID = 0, 0
		}
	}
	return err
}

// stockGuardError explains why the guarded decrement matched no row: the
// product is gone or inactive, or there is not enough stock.
func stockGuardError(ctx context.Context, tx *sqlx.Tx, productID int64) error {
	var active bool
	err := tx.QueryRowxContext(ctx, "SELECT is_active FROM products WHERE id = $1", productID).Scan(&active)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: product %d no longer exists", ErrProductUnavailable, productID)
	case err != nil:
		return fmt.Errorf("failed to check product %d: %w", productID, err)
	case !active:
		return fmt.Errorf("%w: product %d is inactive", ErrProductUnavailable, productID)
	}
	return fmt.Errorf("%w: product %d", ErrInsufficientStock, productID)
}

func mapOrderInsertError(err error) error {
	code, constraint, ok := constraintError(err)
	if ok && code == pqUniqueViolation {
		switch constraint {
		case "orders_order_number_key":
			return ErrDuplicateOrderNumber
		case "orders_user_idempotency_key":
			return ErrDuplicateIdempotency
		}
	}
	return fmt.Errorf("failed to insert order: %w", err)
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders o WHERE o.id = $1", id)
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// GetOrderByIdempotencyKey returns nil when the user has no order for key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders o WHERE o.user_id = $1 AND o.idempotency_key = $2", userID, key)
	if err != nil {
		if err = notFound(err); err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetOrderItems retrieves all items for an order with current product data
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderLineItem, error) {
	items := []models.OrderLineItem{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, oi.subtotal,
		       p.name AS product_name, p.image AS product_image
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	return items, err
}

// ListOrders returns one page of order summaries and the total match count
func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderSummary, int, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != 0 {
		conds = append(conds, "o.user_id = "+arg(filter.UserID))
	}
	if filter.Status != "" {
		conds = append(conds, "o.status = "+arg(filter.Status))
	}
	if filter.Since != nil {
		conds = append(conds, "o.created_at >= "+arg(*filter.Since))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf(`(o.order_number ILIKE %s OR EXISTS (
			SELECT 1 FROM order_items si JOIN products sp ON sp.id = si.product_id
			WHERE si.order_id = o.id AND sp.name ILIKE %s))`, p, p))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders o"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.PerPage)
	query := `SELECT ` + orderColumns + `, u.name AS customer_name,
			(SELECT COALESCE(SUM(oi.quantity), 0) FROM order_items oi WHERE oi.order_id = o.id) AS item_count
		FROM orders o
		JOIN users u ON u.id = o.user_id` + where + `
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	orders := []models.OrderSummary{}
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// TransitionOrder moves an order to a new status under a row lock. A
// non-zero ownerID restricts the change to that user's order. Moving to
// cancelled returns the ordered quantities to stock. The previous status
// is returned alongside the updated order.
func (s *Store) TransitionOrder(ctx context.Context, orderID, ownerID int64, to string) (*models.Order, string, error) {
	var order models.Order
	var from string

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := "SELECT " + orderColumns + " FROM orders o WHERE o.id = $1"
		args := []interface{}{orderID}
		if ownerID != 0 {
			query += " AND o.user_id = $2"
			args = append(args, ownerID)
		}
		if err := tx.GetContext(ctx, &order, query+" FOR UPDATE", args...); err != nil {
			return notFound(err)
		}

		from = order.Status
		if !models.CanTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}

		if to == models.OrderStatusCancelled {
			_, err := tx.ExecContext(ctx, `
				UPDATE products p
				SET stock = p.stock + oi.quantity, updated_at = NOW()
				FROM (
					SELECT product_id, SUM(quantity) AS quantity
					FROM order_items WHERE order_id = $1 GROUP BY product_id
				) oi
				WHERE p.id = oi.product_id`, orderID)
			if err != nil {
				return fmt.Errorf("failed to restock order items: %w", err)
			}
		}

		return tx.QueryRowxContext(ctx,
			"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING status, updated_at",
			to, orderID,
		).Scan(&order.Status, &order.UpdatedAt)
	})
	if err != nil {
		return nil, "", err
	}
	return &order, from, nil
}

// CountUserOrders counts the user's orders
func (s *Store) CountUserOrders(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM orders WHERE user_id = $1", userID)
	return n, err
}

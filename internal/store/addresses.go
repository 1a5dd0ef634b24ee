package store

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
)

const addressColumns = `id, user_id, name, phone, street, barangay, city, province, postal_code, is_default, created_at, updated_at`

func (s *Store) ListAddresses(ctx context.Context, userID int64) ([]models.Address, error) {
	addrs := []models.Address{}
	err := s.db.SelectContext(ctx, &addrs,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at, id", userID)
	return addrs, err
}

// GetAddress retrieves an address owned by the user
func (s *Store) GetAddress(ctx context.Context, userID, id int64) (*models.Address, error) {
	var addr models.Address
	err := s.db.GetContext(ctx, &addr,
		"SELECT "+addressColumns+" FROM addresses WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &addr, nil
}

// GetDefaultAddress returns the default address, else the oldest one
func (s *Store) GetDefaultAddress(ctx context.Context, userID int64) (*models.Address, error) {
	var addr models.Address
	err := s.db.GetContext(ctx, &addr,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at, id LIMIT 1", userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &addr, nil
}

// CreateAddress inserts an address. The first address of a user always
// becomes the default, and a new default clears the flag on the others.
func (s *Store) CreateAddress(ctx context.Context, addr *models.Address) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var existing int
		if err := tx.GetContext(ctx, &existing,
			"SELECT COUNT(*) FROM addresses WHERE user_id = $1", addr.UserID); err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if existing == 0 {
			addr.IsDefault = true
		}

		if addr.IsDefault {
			if err := clearDefaultAddress(ctx, tx, addr.UserID); err != nil {
				return err
			}
		}

		return tx.QueryRowxContext(ctx, `
			INSERT INTO addresses (user_id, name, phone, street, barangay, city, province, postal_code, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at`,
			addr.UserID, addr.Name, addr.Phone, addr.Street, addr.Barangay, addr.City,
			addr.Province, addr.PostalCode, addr.IsDefault,
		).Scan(&addr.ID, &addr.CreatedAt, &addr.UpdatedAt)
	})
}

// UpdateAddress overwrites an address owned by the user
func (s *Store) UpdateAddress(ctx context.Context, addr *models.Address) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if addr.IsDefault {
			if err := clearDefaultAddress(ctx, tx, addr.UserID); err != nil {
				return err
			}
		}

		err := tx.QueryRowxContext(ctx, `
			UPDATE addresses
			SET name = $1, phone = $2, street = $3, barangay = $4, city = $5, province = $6,
			    postal_code = $7, is_default = $8, updated_at = NOW()
			WHERE id = $9 AND user_id = $10
			RETURNING is_default, created_at, updated_at`,
			addr.Name, addr.Phone, addr.Street, addr.Barangay, addr.City, addr.Province,
			addr.PostalCode, addr.IsDefault, addr.ID, addr.UserID,
		).Scan(&addr.IsDefault, &addr.CreatedAt, &addr.UpdatedAt)
		return notFound(err)
	})
}

// DeleteAddress removes an address owned by the user
func (s *Store) DeleteAddress(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM addresses WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func clearDefaultAddress(ctx context.Context, tx *sqlx.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE addresses SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default", userID)
	if err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}

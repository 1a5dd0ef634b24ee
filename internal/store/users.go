package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
)

const userColumns = `id, name, email, phone, password_hash, role, status, created_at, updated_at`

// CreateUser inserts an account. Emails are stored lower-cased.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO users (name, email, phone, password_hash, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.Status,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapUserError(err)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE email = $1", strings.ToLower(email))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ListUsersByRole lists accounts of one role, newest first
func (s *Store) ListUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users,
		"SELECT "+userColumns+" FROM users WHERE role = $1 ORDER BY created_at DESC, id DESC", role)
	return users, err
}

// UpdateUser overwrites profile, status and password hash
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	err := s.db.QueryRowxContext(ctx, `
		UPDATE users SET name = $1, email = $2, phone = $3, password_hash = $4, status = $5, updated_at = NOW()
		WHERE id = $6 AND role = $7
		RETURNING updated_at`,
		u.Name, u.Email, u.Phone, u.PasswordHash, u.Status, u.ID, u.Role,
	).Scan(&u.UpdatedAt)
	return mapUserError(notFound(err))
}

// DeleteUser removes an account of the given role
func (s *Store) DeleteUser(ctx context.Context, id int64, role string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1 AND role = $2", id, role)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func mapUserError(err error) error {
	if code, constraint, ok := constraintError(err); ok && code == pqUniqueViolation && constraint == "users_email_key" {
		return ErrDuplicateEmail
	}
	return err
}

// CreateAccessToken records an issued token
func (s *Store) CreateAccessToken(ctx context.Context, t *models.AccessToken) error {
	return s.db.QueryRowxContext(ctx, `
		INSERT INTO access_tokens (id, user_id, role, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		t.ID, t.UserID, t.Role, t.ExpiresAt,
	).Scan(&t.CreatedAt)
}

func (s *Store) GetAccessToken(ctx context.Context, id string) (*models.AccessToken, error) {
	var t models.AccessToken
	err := s.db.GetContext(ctx, &t,
		"SELECT id, user_id, role, expires_at, revoked_at, created_at FROM access_tokens WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// RevokeAccessToken marks a token unusable. Revoking twice is a no-op.
func (s *Store) RevokeAccessToken(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE access_tokens SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL", at, id)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// PurgeExpiredTokens deletes revoked tokens and tokens that expired before cutoff
func (s *Store) PurgeExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM access_tokens WHERE expires_at < $1 OR revoked_at IS NOT NULL", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

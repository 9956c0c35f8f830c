package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budgetbully/internal/domain/user"
)

const userColumns = `id, email, first_name, last_name, link_token_id, push_token, created_at, updated_at`

// UserRepository implements user.Repository for PostgreSQL.
// Users are created by the identity provider, this service only reads them.
type UserRepository struct {
	db *DB
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var u user.User
	var linkTokenID, pushToken sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &linkTokenID, &pushToken, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.LinkTokenID = stringPtr(linkTokenID)
	u.PushToken = stringPtr(pushToken)
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *UserRepository) GetByLinkToken(ctx context.Context, linkToken string) (*user.User, error) {
	return r.getOne(ctx, "link_token_id = $1", linkToken)
}

func (r *UserRepository) GetPushToken(ctx context.Context, userID string) (*string, error) {
	var token sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT push_token FROM users WHERE id = $1`, userID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get push token: %w", err)
	}
	return stringPtr(token), nil
}

// ClearPushToken forgets a device token that the push service reported as unregistered
func (r *UserRepository) ClearPushToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET push_token = NULL, updated_at = CURRENT_TIMESTAMP WHERE push_token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to clear push token: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"budgetbully/internal/domain/account"
)

const accountColumns = `id, user_id, item_id, name, balance, type, subtype, mask, created_at, updated_at`

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

var _ account.Repository = (*AccountRepository)(nil)

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(s scanner) (*account.Account, error) {
	var acc account.Account
	var subtype, mask sql.NullString

	err := s.Scan(
		&acc.ID, &acc.UserID, &acc.ItemID, &acc.Name, &acc.Balance,
		&acc.Type, &subtype, &mask, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	acc.Subtype = stringPtr(subtype)
	acc.Mask = stringPtr(mask)
	return &acc, nil
}

// Upsert inserts or replaces an account from the provider snapshot
func (r *AccountRepository) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	query := `
		INSERT INTO accounts (id, user_id, item_id, name, balance, type, subtype, mask)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
		    user_id = EXCLUDED.user_id,
		    item_id = EXCLUDED.item_id,
		    name = EXCLUDED.name,
		    balance = EXCLUDED.balance,
		    type = EXCLUDED.type,
		    subtype = EXCLUDED.subtype,
		    mask = EXCLUDED.mask,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING ` + accountColumns

	acc, err := scanAccount(r.db.QueryRowContext(
		ctx, query,
		params.ID, params.UserID, params.ItemID, params.Name, params.Balance,
		params.Type, nullString(params.Subtype), nullString(params.Mask),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}
	return acc, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// ListByUserID retrieves all accounts for a specific user
func (r *AccountRepository) ListByUserID(ctx context.Context, userID string) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// DeleteMissing removes the user's accounts on the item that the latest snapshot no longer lists
func (r *AccountRepository) DeleteMissing(ctx context.Context, userID, itemID string, keepIDs []string) (int64, error) {
	query := `DELETE FROM accounts WHERE user_id = $1 AND item_id = $2 AND id <> ALL($3)`

	result, err := r.db.ExecContext(ctx, query, userID, itemID, pq.Array(keepIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete missing accounts: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"budgetbully/internal/domain/item"
	"budgetbully/internal/infrastructure/crypto"
)

const itemColumns = `id, user_id, access_token, cursor, status, created_at, updated_at`

// ItemRepository implements item.Repository. Access tokens are stored
// encrypted, with a digest column for lookups by token.
type ItemRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

var _ item.Repository = (*ItemRepository)(nil)

func NewItemRepository(db *DB, encryptor *crypto.Encryptor) *ItemRepository {
	return &ItemRepository{db: db, encryptor: encryptor}
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *ItemRepository) scanItem(s scanner) (*item.Item, error) {
	var it item.Item
	var cursor sql.NullString

	if err := s.Scan(&it.ID, &it.UserID, &it.AccessToken, &cursor, &it.Status, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.Cursor = stringPtr(cursor)

	decrypted, err := r.encryptor.Decrypt(it.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	it.AccessToken = decrypted
	return &it, nil
}

func (r *ItemRepository) getOne(ctx context.Context, where string, arg any) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE ` + where

	it, err := r.scanItem(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*item.Item, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *ItemRepository) GetByAccessToken(ctx context.Context, accessToken string) (*item.Item, error) {
	return r.getOne(ctx, "access_token_digest = $1", tokenDigest(accessToken))
}

// Upsert stores a newly linked item. Relinking replaces the token and keeps the cursor.
func (r *ItemRepository) Upsert(ctx context.Context, params item.UpsertParams) (*item.Item, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	encrypted, err := r.encryptor.Encrypt(params.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	query := `
		INSERT INTO items (id, user_id, access_token, access_token_digest)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
		    user_id = EXCLUDED.user_id,
		    access_token = EXCLUDED.access_token,
		    access_token_digest = EXCLUDED.access_token_digest,
		    status = 'GOOD',
		    updated_at = CURRENT_TIMESTAMP
		RETURNING ` + itemColumns

	it, err := r.scanItem(r.db.QueryRowContext(ctx, query, params.ID, params.UserID, encrypted, tokenDigest(params.AccessToken)))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) UpdateCursor(ctx context.Context, id string, cursor string) error {
	return r.update(ctx, `UPDATE items SET cursor = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, cursor)
}

func (r *ItemRepository) UpdateStatus(ctx context.Context, id string, status item.Status) error {
	if !item.IsValidStatus(status) {
		return item.ErrInvalidStatus
	}
	return r.update(ctx, `UPDATE items SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, status)
}

func (r *ItemRepository) update(ctx context.Context, query, id string, value any) error {
	result, err := r.db.ExecContext(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return item.ErrItemNotFound
	}
	return nil
}

// ListSyncable returns items that are not waiting on the user to log in again
func (r *ItemRepository) ListSyncable(ctx context.Context) ([]*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE status <> $1 ORDER BY updated_at`

	rows, err := r.db.QueryContext(ctx, query, item.StatusLoginRequired)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := r.scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

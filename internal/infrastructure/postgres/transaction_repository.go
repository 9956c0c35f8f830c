package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"budgetbully/internal/domain/transaction"
)

const transactionColumns = `id, account_id, user_id, date, amount, name, category, detailed_category,
	reviewed, pending, logo_url, created_at, updated_at`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	db *DB
}

var _ transaction.Repository = (*TransactionRepository)(nil)

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var logoURL sql.NullString

	err := s.Scan(
		&tx.ID, &tx.AccountID, &tx.UserID, &tx.Date, &tx.Amount, &tx.Name,
		&tx.Category, &tx.DetailedCategory, &tx.Reviewed, &tx.Pending, &logoURL,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.LogoURL = stringPtr(logoURL)
	return &tx, nil
}

// Upsert inserts or replaces a transaction keyed by its provider ID
func (r *TransactionRepository) Upsert(ctx context.Context, params transaction.UpsertParams) (*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions (id, account_id, user_id, date, amount, name, category,
		                          detailed_category, reviewed, pending, logo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
		    account_id = EXCLUDED.account_id,
		    date = EXCLUDED.date,
		    amount = EXCLUDED.amount,
		    name = EXCLUDED.name,
		    category = EXCLUDED.category,
		    detailed_category = EXCLUDED.detailed_category,
		    reviewed = EXCLUDED.reviewed,
		    pending = EXCLUDED.pending,
		    logo_url = EXCLUDED.logo_url,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING ` + transactionColumns

	tx, err := scanTransaction(r.db.QueryRowContext(
		ctx, query,
		params.ID, params.AccountID, params.UserID, params.Date, params.Amount, params.Name,
		params.Category, params.DetailedCategory, params.Reviewed, params.Pending, nullString(params.LogoURL),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return tx, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// ListByUserID retrieves all stored transactions of a user, newest first
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID string) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 ORDER BY date DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

func (r *TransactionRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"budgetbully/internal/domain/category"
)

const categoryColumns = `id, user_id, category, spending_limit, total, status, reason, created_at, updated_at`

// CategoryRepository implements the category.Repository interface for PostgreSQL
type CategoryRepository struct {
	db *DB
}

var _ category.Repository = (*CategoryRepository)(nil)

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func scanCategory(s scanner) (*category.Category, error) {
	var c category.Category
	var reason sql.NullString

	err := s.Scan(
		&c.ID, &c.UserID, &c.Category, &c.Limit, &c.Total, &c.Status, &reason,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Reason = stringPtr(reason)
	return &c, nil
}

// UpsertLimit overwrites the suggested limit for one (user, category) row
func (r *CategoryRepository) UpsertLimit(ctx context.Context, params category.UpsertLimitParams) (*category.Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO categories (id, user_id, category, spending_limit)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, category) DO UPDATE SET
		    spending_limit = EXCLUDED.spending_limit,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING ` + categoryColumns

	c, err := scanCategory(r.db.QueryRowContext(ctx, query, uuid.New(), params.UserID, params.Category, params.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert category limit: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) GetStatus(ctx context.Context, userID string, c category.BudgetCategory) (*category.Status, error) {
	var status category.Status
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM categories WHERE user_id = $1 AND category = $2`,
		userID, c,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category status: %w", err)
	}
	return &status, nil
}

func (r *CategoryRepository) ListByUserID(ctx context.Context, userID string) ([]*category.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 ORDER BY category`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*category.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

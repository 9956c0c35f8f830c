package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"budgetbully/internal/domain/notification"
)

type AlertRepository struct {
	db *DB
}

var _ notification.Repository = (*AlertRepository)(nil)

func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) CreateAlert(ctx context.Context, params notification.CreateAlertParams) (*notification.Alert, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO alerts (id, user_id, type, message, target)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, type, message, target, is_read, created_at
	`

	var a notification.Alert
	var target sql.NullString
	err := r.db.QueryRowContext(ctx, query,
		uuid.New(), params.UserID, params.Type, params.Message, nullString(params.Target),
	).Scan(&a.ID, &a.UserID, &a.Type, &a.Message, &target, &a.IsRead, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	a.Target = stringPtr(target)
	return &a, nil
}

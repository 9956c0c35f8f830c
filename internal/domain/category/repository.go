package category

import "context"

// Repository defines the interface for category data access
type Repository interface {
	UpsertLimit(ctx context.Context, params UpsertLimitParams) (*Category, error)
	// GetStatus returns nil when the user has no row for the category.
	GetStatus(ctx context.Context, userID string, c BudgetCategory) (*Status, error)
	ListByUserID(ctx context.Context, userID string) ([]*Category, error)
}

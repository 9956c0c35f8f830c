package transaction

import "context"

// Repository defines the interface for transaction data access
type Repository interface {
	Upsert(ctx context.Context, params UpsertParams) (*Transaction, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
	ListByUserID(ctx context.Context, userID string) ([]*Transaction, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
}

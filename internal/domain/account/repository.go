package account

import "context"

// Repository defines the interface for account data access
// This interface is defined in the domain layer and implemented in the infrastructure layer
type Repository interface {
	Upsert(ctx context.Context, params UpsertParams) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	ListByUserID(ctx context.Context, userID string) ([]*Account, error)
	// DeleteMissing removes the user's accounts on itemID whose ids are not in keepIDs.
	DeleteMissing(ctx context.Context, userID, itemID string, keepIDs []string) (int64, error)
}

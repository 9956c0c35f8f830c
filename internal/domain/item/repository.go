package item

import "context"

// Repository defines the interface for linked item data access.
// Lookups return (nil, nil) when no item matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Item, error)
	GetByAccessToken(ctx context.Context, accessToken string) (*Item, error)
	Upsert(ctx context.Context, params UpsertParams) (*Item, error)
	UpdateCursor(ctx context.Context, id string, cursor string) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	// ListSyncable returns items whose status allows a sync attempt.
	ListSyncable(ctx context.Context) ([]*Item, error)
	Delete(ctx context.Context, id string) error
}

package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByLinkToken resolves the user a link token was issued to, or nil if none.
	GetByLinkToken(ctx context.Context, linkToken string) (*User, error)
	// GetPushToken returns nil when the user has not registered a device.
	GetPushToken(ctx context.Context, userID string) (*string, error)
	ClearPushToken(ctx context.Context, token string) error
}

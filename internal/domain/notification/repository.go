package notification

import "context"

// Repository defines the interface for alert data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	CreateAlert(ctx context.Context, params CreateAlertParams) (*Alert, error)
}

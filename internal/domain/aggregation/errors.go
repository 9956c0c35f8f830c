package aggregation

import "errors"

// Error kinds surfaced by sync operations. Callers branch on them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrUpstreamFailure    = errors.New("upstream provider request failed")
	ErrPersistenceFailure = errors.New("persistence failed")
	ErrValidationFailure  = errors.New("validation failed")
)

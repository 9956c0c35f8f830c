package plaid

import (
	"errors"
	"fmt"
)

// Error codes the service reacts to
const (
	CodeItemLoginRequired        = "ITEM_LOGIN_REQUIRED"
	CodeMutationDuringPagination = "TRANSACTIONS_SYNC_MUTATION_DURING_PAGINATION"
)

// Error is the error body Plaid returns with every non-200 response
type Error struct {
	StatusCode     int     `json:"-"`
	ErrorType      string  `json:"error_type"`
	ErrorCode      string  `json:"error_code"`
	ErrorMessage   string  `json:"error_message"`
	DisplayMessage *string `json:"display_message"`
	RequestID      string  `json:"request_id"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("plaid error (status %d): %s/%s - %s", e.StatusCode, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// ErrorCode extracts the provider error code from err, or "" if err is not a *Error.
func ErrorCode(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.ErrorCode
	}
	return ""
}

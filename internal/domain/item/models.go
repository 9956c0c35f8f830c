package item

import (
	"errors"
	"time"
)

// Status is the health of the link between a user and the aggregation provider.
type Status string

const (
	StatusGood              Status = "GOOD"
	StatusLoginRequired     Status = "LOGIN_REQUIRED"
	StatusPendingExpiration Status = "PENDING_EXPIRATION"
	StatusError             Status = "ERROR"
)

// Domain errors
var (
	ErrItemNotFound  = errors.New("item not found")
	ErrInvalidStatus = errors.New("invalid item status")
)

// Item is one aggregation connection. Cursor is nil until the first successful sync.
type Item struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	AccessToken string    `json:"-"`
	Cursor      *string   `json:"-"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasAccessToken reports whether the item carries a usable credential.
func (i *Item) HasAccessToken() bool {
	return i.AccessToken != ""
}

// UpsertParams contains parameters for creating or relinking an item
type UpsertParams struct {
	ID          string
	UserID      string
	AccessToken string
}

func (p UpsertParams) Validate() error {
	if p.ID == "" {
		return errors.New("item ID is required")
	}
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.AccessToken == "" {
		return errors.New("access token is required")
	}
	return nil
}

// IsValidStatus checks if s is a known item status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusGood, StatusLoginRequired, StatusPendingExpiration, StatusError:
		return true
	}
	return false
}

package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Account types reported by the aggregation provider.
const (
	TypeDepository = "depository"
	TypeCredit     = "credit"
	TypeLoan       = "loan"
	TypeInvestment = "investment"
	TypeOther      = "other"
)

var accountTypes = map[string]struct{}{
	TypeDepository: {},
	TypeCredit:     {},
	TypeLoan:       {},
	TypeInvestment: {},
	TypeOther:      {},
}

// Domain errors
var (
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// Account represents a financial account domain entity
type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Type      string          `json:"type"`
	Subtype   *string         `json:"subtype,omitempty"`
	Mask      *string         `json:"mask,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// IsDepository reports whether the account holds deposits (checking, savings and the like).
func (a *Account) IsDepository() bool {
	return a.Type == TypeDepository
}

// UpsertParams contains parameters for upserting an account
type UpsertParams struct {
	ID      string
	UserID  string
	ItemID  string
	Name    string
	Balance decimal.Decimal
	Type    string
	Subtype *string
	Mask    *string
}

// Validate validates the upsert parameters
func (p UpsertParams) Validate() error {
	if p.ID == "" {
		return errors.New("account ID is required for upsert")
	}
	if p.UserID == "" {
		return errors.New("user ID is required for upsert")
	}
	if p.ItemID == "" {
		return errors.New("item ID is required for upsert")
	}
	if p.Name == "" {
		return errors.New("account name is required")
	}
	if p.Type == "" {
		return errors.New("account type is required")
	}
	if !IsValidAccountType(p.Type) {
		return ErrInvalidAccountType
	}
	return nil
}

// IsValidAccountType checks if the provided account type is valid.
func IsValidAccountType(t string) bool {
	_, ok := accountTypes[t]
	return ok
}

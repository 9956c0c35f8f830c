package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"budgetbully/internal/domain/category"
)

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// Transaction is a single ledger entry on a linked account.
// Amount is signed with positive meaning money in.
type Transaction struct {
	ID               string                  `json:"id"`
	AccountID        string                  `json:"accountId"`
	UserID           string                  `json:"userId"`
	Date             time.Time               `json:"date"`
	Amount           decimal.Decimal         `json:"amount"`
	Name             string                  `json:"name"`
	Category         category.BudgetCategory `json:"category"`
	DetailedCategory string                  `json:"detailedCategory"`
	Reviewed         bool                    `json:"reviewed"`
	Pending          bool                    `json:"pending"`
	LogoURL          *string                 `json:"logoUrl,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

// UpsertParams contains parameters for upserting a transaction
type UpsertParams struct {
	ID               string
	AccountID        string
	UserID           string
	Date             time.Time
	Amount           decimal.Decimal
	Name             string
	Category         category.BudgetCategory
	DetailedCategory string
	Reviewed         bool
	Pending          bool
	LogoURL          *string
}

// Validate validates the upsert parameters
func (p UpsertParams) Validate() error {
	if p.ID == "" {
		return errors.New("transaction ID is required for upsert")
	}
	if p.AccountID == "" {
		return errors.New("account ID is required for upsert")
	}
	if p.UserID == "" {
		return errors.New("user ID is required for upsert")
	}
	if p.Date.IsZero() {
		return errors.New("transaction date is required")
	}
	if !p.Category.IsValid() {
		return category.ErrInvalidCategory
	}
	return nil
}

// ToUpsertParams copies the persisted fields of t.
func (t *Transaction) ToUpsertParams() UpsertParams {
	return UpsertParams{
		ID:               t.ID,
		AccountID:        t.AccountID,
		UserID:           t.UserID,
		Date:             t.Date,
		Amount:           t.Amount,
		Name:             t.Name,
		Category:         t.Category,
		DetailedCategory: t.DetailedCategory,
		Reviewed:         t.Reviewed,
		Pending:          t.Pending,
		LogoURL:          t.LogoURL,
	}
}

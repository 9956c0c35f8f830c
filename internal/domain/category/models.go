package category

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetCategory is the budgeting taxonomy transactions are classified into.
type BudgetCategory string

const (
	BankFees           BudgetCategory = "BANK_FEES"
	Groceries          BudgetCategory = "GROCERIES"
	Insurance          BudgetCategory = "INSURANCE"
	RentAndUtilities   BudgetCategory = "RENT_AND_UTILITIES"
	Transportation     BudgetCategory = "TRANSPORTATION"
	EatingOut          BudgetCategory = "EATING_OUT"
	Entertainment      BudgetCategory = "ENTERTAINMENT"
	Subscriptions      BudgetCategory = "SUBSCRIPTIONS"
	PersonalCare       BudgetCategory = "PERSONAL_CARE"
	GeneralServices    BudgetCategory = "GENERAL_SERVICES"
	GeneralMerchandise BudgetCategory = "GENERAL_MERCHANDISE"
	Travel             BudgetCategory = "TRAVEL"
	Savings            BudgetCategory = "SAVINGS"
	LoanPayments       BudgetCategory = "LOAN_PAYMENTS"
	Income             BudgetCategory = "INCOME"
	TransferIn         BudgetCategory = "TRANSFER_IN"
	TransferOut        BudgetCategory = "TRANSFER_OUT"
	FoodAndDrink       BudgetCategory = "FOOD_AND_DRINK"
	Other              BudgetCategory = "OTHER"
)

var knownCategories = map[BudgetCategory]struct{}{
	BankFees: {}, Groceries: {}, Insurance: {}, RentAndUtilities: {}, Transportation: {},
	EatingOut: {}, Entertainment: {}, Subscriptions: {}, PersonalCare: {}, GeneralServices: {},
	GeneralMerchandise: {}, Travel: {}, Savings: {}, LoanPayments: {}, Income: {},
	TransferIn: {}, TransferOut: {}, FoodAndDrink: {}, Other: {},
}

// IsValid reports whether c is one of the fixed budget categories.
func (c BudgetCategory) IsValid() bool {
	_, ok := knownCategories[c]
	return ok
}

func (c BudgetCategory) String() string {
	return string(c)
}

// Status is the over-budget state of a category, maintained outside the sync pipeline.
type Status string

const (
	StatusGood       Status = "GOOD"
	StatusAlmostOver Status = "ALMOST_OVER"
	StatusOver       Status = "OVER"
)

// Domain errors
var (
	ErrInvalidCategory = errors.New("invalid budget category")
	ErrInvalidUserID   = errors.New("user ID is required")
)

// Category is a user's budget row for one budget category.
type Category struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Category  BudgetCategory  `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	Reason    *string         `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// UpsertLimitParams overwrites the limit of a (user, category) row, creating it if needed.
type UpsertLimitParams struct {
	UserID   string
	Category BudgetCategory
	Limit    decimal.Decimal
}

func (p UpsertLimitParams) Validate() error {
	if p.UserID == "" {
		return ErrInvalidUserID
	}
	if !p.Category.IsValid() {
		return ErrInvalidCategory
	}
	return nil
}

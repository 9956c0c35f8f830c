package plaid

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// TransactionsSyncResponse is one page of /transactions/sync
type TransactionsSyncResponse struct {
	Added      []Transaction        `json:"added"`
	Modified   []Transaction        `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
	RequestID  string               `json:"request_id"`
}

// PersonalFinanceCategory is Plaid's two-level category code
type PersonalFinanceCategory struct {
	Primary         string `json:"primary"`
	Detailed        string `json:"detailed"`
	ConfidenceLevel string `json:"confidence_level,omitempty"`
}

// Transaction represents a transaction from the Plaid API.
// Plaid reports outflows as positive amounts.
type Transaction struct {
	TransactionID           string                   `json:"transaction_id"`
	AccountID               string                   `json:"account_id"`
	Amount                  decimal.Decimal          `json:"amount"`
	IsoCurrencyCode         *string                  `json:"iso_currency_code"`
	Date                    string                   `json:"date"`
	AuthorizedDate          *string                  `json:"authorized_date"`
	Name                    string                   `json:"name"`
	MerchantName            *string                  `json:"merchant_name"`
	LogoURL                 *string                  `json:"logo_url"`
	Pending                 bool                     `json:"pending"`
	PersonalFinanceCategory *PersonalFinanceCategory `json:"personal_finance_category"`
}

// GetAmount returns the amount with positive meaning money in.
func (t *Transaction) GetAmount() decimal.Decimal {
	return t.Amount.Neg()
}

// GetDate returns the authorized date, falling back to the posted date
func (t *Transaction) GetDate() (time.Time, error) {
	raw := t.Date
	if t.AuthorizedDate != nil && *t.AuthorizedDate != "" {
		raw = *t.AuthorizedDate
	}
	if raw == "" {
		return time.Time{}, fmt.Errorf("transaction %s has no date", t.TransactionID)
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", raw, err)
	}
	return parsed, nil
}

// GetName returns the merchant name, falling back to the raw description
func (t *Transaction) GetName() string {
	if t.MerchantName != nil && *t.MerchantName != "" {
		return *t.MerchantName
	}
	return t.Name
}

// Categories returns the detailed and primary category codes, empty when absent
func (t *Transaction) Categories() (detailed, primary string) {
	if t.PersonalFinanceCategory == nil {
		return "", ""
	}
	return t.PersonalFinanceCategory.Detailed, t.PersonalFinanceCategory.Primary
}

type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
}

// AccountsResponse is the /accounts/get payload
type AccountsResponse struct {
	Accounts  []Account `json:"accounts"`
	Item      Item      `json:"item"`
	RequestID string    `json:"request_id"`
}

type Item struct {
	ItemID        string  `json:"item_id"`
	InstitutionID *string `json:"institution_id"`
}

// Account represents an account from the Plaid API
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName *string  `json:"official_name"`
	Mask         *string  `json:"mask"`
	Type         string   `json:"type"`
	Subtype      *string  `json:"subtype"`
	Balances     Balances `json:"balances"`
}

type Balances struct {
	Available       *decimal.Decimal `json:"available"`
	Current         *decimal.Decimal `json:"current"`
	IsoCurrencyCode *string          `json:"iso_currency_code"`
}

// GetBalance returns the available balance, falling back to current
func (a *Account) GetBalance() decimal.Decimal {
	if a.Balances.Available != nil {
		return *a.Balances.Available
	}
	if a.Balances.Current != nil {
		return *a.Balances.Current
	}
	return decimal.Zero
}

// ExchangeResponse is the /item/public_token/exchange payload
type ExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

package notification

import (
	"errors"
	"time"

	"budgetbully/internal/domain/category"
)

// AlertType classifies stored alerts.
type AlertType string

const (
	AlertUncategorizedTransaction AlertType = "uncategorizedTransaction"
	AlertOverBudget               AlertType = "overBudget"
	AlertAlmostOverBudget         AlertType = "almostOverBudget"
	AlertAccountNeedsAction       AlertType = "accountNeedsAction"
)

var validAlertTypes = map[AlertType]struct{}{
	AlertUncategorizedTransaction: {},
	AlertOverBudget:               {},
	AlertAlmostOverBudget:         {},
	AlertAccountNeedsAction:       {},
}

// Domain errors
var (
	ErrInvalidAlertType = errors.New("invalid alert type")
	ErrInvalidToken     = errors.New("push token is required")
)

// Message is a push notification ready to send.
// Category is empty for the generic unreviewed message.
type Message struct {
	Title    string
	Subtitle string
	Body     string
	Category category.BudgetCategory
	Data     map[string]string
}

// IsGeneric reports whether the message is the fallback not tied to a category.
func (m Message) IsGeneric() bool {
	return m.Category == ""
}

// Alert represents a stored alert record
type Alert struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Target    *string   `json:"target,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateAlertParams contains parameters for storing an alert
type CreateAlertParams struct {
	UserID  string
	Type    AlertType
	Message string
	Target  *string
}

func (p CreateAlertParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.Message == "" {
		return errors.New("alert message is required")
	}
	if !IsValidAlertType(p.Type) {
		return ErrInvalidAlertType
	}
	return nil
}

func IsValidAlertType(t AlertType) bool {
	_, ok := validAlertTypes[t]
	return ok
}

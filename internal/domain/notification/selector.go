package notification

import (
	"context"
	"fmt"

	"budgetbully/internal/domain/category"
	"budgetbully/internal/domain/transaction"
	"budgetbully/internal/shared/messages"
)

// StatusReader looks up a user's budget status for one category.
// A nil status means the user has no row for it.
type StatusReader interface {
	GetStatus(ctx context.Context, userID string, c category.BudgetCategory) (*category.Status, error)
}

// branch is one entry of the priority list. A transaction belongs to the
// branch when its category is in matches; the branch fires when the status
// of statusOf is not GOOD.
type branch struct {
	matches  []category.BudgetCategory
	statusOf category.BudgetCategory
	text     func(*messages.Messages) messages.CategoryMessage
}

var priority = []branch{
	{
		matches:  []category.BudgetCategory{category.GeneralMerchandise},
		statusOf: category.GeneralMerchandise,
		text:     func(m *messages.Messages) messages.CategoryMessage { return m.GeneralMerchandise },
	},
	{
		matches:  []category.BudgetCategory{category.EatingOut, category.FoodAndDrink},
		statusOf: category.EatingOut,
		text:     func(m *messages.Messages) messages.CategoryMessage { return m.FoodAndDrink },
	},
	{
		matches:  []category.BudgetCategory{category.PersonalCare},
		statusOf: category.PersonalCare,
		text:     func(m *messages.Messages) messages.CategoryMessage { return m.PersonalCare },
	},
	{
		matches:  []category.BudgetCategory{category.Entertainment},
		statusOf: category.Entertainment,
		text:     func(m *messages.Messages) messages.CategoryMessage { return m.Entertainment },
	},
	{
		matches:  []category.BudgetCategory{category.Travel},
		statusOf: category.Travel,
		text:     func(m *messages.Messages) messages.CategoryMessage { return m.Travel },
	},
}

func (b branch) present(txs []*transaction.Transaction) bool {
	for _, tx := range txs {
		for _, c := range b.matches {
			if tx.Category == c {
				return true
			}
		}
	}
	return false
}

// Selector picks the single notification to show for a batch of unreviewed transactions.
type Selector struct {
	statuses StatusReader
	texts    *messages.Messages
}

func NewSelector(statuses StatusReader, texts *messages.Messages) *Selector {
	return &Selector{statuses: statuses, texts: texts}
}

// Select walks the priority list and returns the message for the first
// branch that has transactions and is not in GOOD standing. Only present
// branches are looked up. Without a match the generic message is returned.
//
// Merchant variants are matched against the names of every unreviewed
// transaction, not only those of the winning branch.
func (s *Selector) Select(ctx context.Context, userID string, unreviewed []*transaction.Transaction) (Message, error) {
	names := make([]string, 0, len(unreviewed))
	for _, tx := range unreviewed {
		names = append(names, tx.Name)
	}

	for _, b := range priority {
		if !b.present(unreviewed) {
			continue
		}

		status, err := s.statuses.GetStatus(ctx, userID, b.statusOf)
		if err != nil {
			return s.generic(), fmt.Errorf("failed to get %s status: %w", b.statusOf, err)
		}
		if status != nil && *status == category.StatusGood {
			continue
		}

		text := b.text(s.texts)
		return Message{
			Title:    text.Title,
			Subtitle: text.Subtitle,
			Body:     text.BodyFor(names),
			Category: b.statusOf,
			Data: map[string]string{
				"type":     "unreviewed_transactions",
				"category": b.statusOf.String(),
			},
		}, nil
	}

	return s.generic(), nil
}

func (s *Selector) generic() Message {
	return Message{
		Title: s.texts.Unreviewed.Title,
		Body:  s.texts.Unreviewed.Body,
		Data:  map[string]string{"type": "unreviewed_transactions"},
	}
}

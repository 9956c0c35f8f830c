package notification

import (
	"context"
	"errors"
	"testing"

	"budgetbully/internal/domain/category"
	"budgetbully/internal/domain/transaction"
	"budgetbully/internal/shared/messages"
)

// MockStatusReader implements StatusReader for testing
type MockStatusReader struct {
	GetStatusFunc func(ctx context.Context, userID string, c category.BudgetCategory) (*category.Status, error)
	calls         []category.BudgetCategory
}

func (m *MockStatusReader) GetStatus(ctx context.Context, userID string, c category.BudgetCategory) (*category.Status, error) {
	m.calls = append(m.calls, c)
	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, userID, c)
	}
	return nil, nil
}

func statuses(s map[category.BudgetCategory]category.Status) *MockStatusReader {
	return &MockStatusReader{
		GetStatusFunc: func(ctx context.Context, userID string, c category.BudgetCategory) (*category.Status, error) {
			st, ok := s[c]
			if !ok {
				return nil, nil
			}
			return &st, nil
		},
	}
}

func unreviewedTx(name string, c category.BudgetCategory) *transaction.Transaction {
	return &transaction.Transaction{ID: name, Name: name, Category: c}
}

func TestSelector_Select(t *testing.T) {
	texts := messages.Default()
	ctx := context.Background()

	tests := []struct {
		name         string
		statuses     map[category.BudgetCategory]category.Status
		txs          []*transaction.Transaction
		wantTitle    string
		wantBody     string
		wantCategory category.BudgetCategory
	}{
		{
			name:         "general merchandise over budget with Target",
			statuses:     map[category.BudgetCategory]category.Status{category.GeneralMerchandise: category.StatusOver},
			txs:          []*transaction.Transaction{unreviewedTx("Target", category.GeneralMerchandise)},
			wantTitle:    "General Merchandise",
			wantBody:     texts.GeneralMerchandise.Merchants[0].Body,
			wantCategory: category.GeneralMerchandise,
		},
		{
			name:         "general merchandise Amazon variant",
			statuses:     map[category.BudgetCategory]category.Status{category.GeneralMerchandise: category.StatusAlmostOver},
			txs:          []*transaction.Transaction{unreviewedTx("Amazon.com", category.GeneralMerchandise)},
			wantTitle:    "General Merchandise",
			wantBody:     texts.GeneralMerchandise.Merchants[1].Body,
			wantCategory: category.GeneralMerchandise,
		},
		{
			name:         "general merchandise default body",
			statuses:     map[category.BudgetCategory]category.Status{category.GeneralMerchandise: category.StatusOver},
			txs:          []*transaction.Transaction{unreviewedTx("Best Buy", category.GeneralMerchandise)},
			wantTitle:    "General Merchandise",
			wantBody:     texts.GeneralMerchandise.Body,
			wantCategory: category.GeneralMerchandise,
		},
		{
			name:         "missing status row counts as not good",
			txs:          []*transaction.Transaction{unreviewedTx("Spa Day", category.PersonalCare)},
			wantTitle:    "Personal Care",
			wantBody:     texts.PersonalCare.Body,
			wantCategory: category.PersonalCare,
		},
		{
			name: "good category is skipped for the next branch",
			statuses: map[category.BudgetCategory]category.Status{
				category.GeneralMerchandise: category.StatusGood,
				category.EatingOut:          category.StatusOver,
			},
			txs: []*transaction.Transaction{
				unreviewedTx("Target", category.GeneralMerchandise),
				unreviewedTx("Starbucks", category.EatingOut),
			},
			wantTitle:    "Food and Drink",
			wantBody:     texts.FoodAndDrink.Merchants[0].Body,
			wantCategory: category.EatingOut,
		},
		{
			name: "priority order wins when several are over",
			statuses: map[category.BudgetCategory]category.Status{
				category.Travel:        category.StatusOver,
				category.Entertainment: category.StatusOver,
			},
			txs: []*transaction.Transaction{
				unreviewedTx("Delta", category.Travel),
				unreviewedTx("AMC", category.Entertainment),
			},
			wantTitle:    "Entertainment",
			wantBody:     texts.Entertainment.Body,
			wantCategory: category.Entertainment,
		},
		{
			name:     "merchant variant matches names outside the branch",
			statuses: map[category.BudgetCategory]category.Status{category.GeneralMerchandise: category.StatusOver},
			txs: []*transaction.Transaction{
				unreviewedTx("Best Buy", category.GeneralMerchandise),
				unreviewedTx("Target Pharmacy", category.GeneralServices),
			},
			wantTitle:    "General Merchandise",
			wantBody:     texts.GeneralMerchandise.Merchants[0].Body,
			wantCategory: category.GeneralMerchandise,
		},
		{
			name:         "merchant match is case-sensitive",
			statuses:     map[category.BudgetCategory]category.Status{category.GeneralMerchandise: category.StatusOver},
			txs:          []*transaction.Transaction{unreviewedTx("TARGET T-1234", category.GeneralMerchandise)},
			wantTitle:    "General Merchandise",
			wantBody:     texts.GeneralMerchandise.Body,
			wantCategory: category.GeneralMerchandise,
		},
		{
			name:         "residual food and drink uses the food branch",
			statuses:     map[category.BudgetCategory]category.Status{category.EatingOut: category.StatusOver},
			txs:          []*transaction.Transaction{unreviewedTx("McDonald's", category.FoodAndDrink)},
			wantTitle:    "Food and Drink",
			wantBody:     texts.FoodAndDrink.Merchants[1].Body,
			wantCategory: category.EatingOut,
		},
		{
			name: "all good falls back to generic",
			statuses: map[category.BudgetCategory]category.Status{
				category.Travel: category.StatusGood,
			},
			txs:       []*transaction.Transaction{unreviewedTx("Delta", category.Travel)},
			wantTitle: "Unreviewed Transactions",
			wantBody:  "You have unreviewed transactions",
		},
		{
			name:      "categories outside the list fall back to generic",
			txs:       []*transaction.Transaction{unreviewedTx("Whole Foods", category.Groceries)},
			wantTitle: "Unreviewed Transactions",
			wantBody:  "You have unreviewed transactions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelector(statuses(tt.statuses), texts)
			msg, err := sel.Select(ctx, "user_1", tt.txs)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if msg.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", msg.Title, tt.wantTitle)
			}
			if msg.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", msg.Body, tt.wantBody)
			}
			if msg.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", msg.Category, tt.wantCategory)
			}
		})
	}
}

func TestSelector_LooksUpOnlyPresentBranches(t *testing.T) {
	reader := statuses(map[category.BudgetCategory]category.Status{category.Travel: category.StatusGood})
	sel := NewSelector(reader, messages.Default())

	_, err := sel.Select(context.Background(), "user_1", []*transaction.Transaction{unreviewedTx("Delta", category.Travel)})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(reader.calls) != 1 || reader.calls[0] != category.Travel {
		t.Errorf("status lookups = %v, want [TRAVEL]", reader.calls)
	}
}

func TestSelector_StatusErrorReturnsGeneric(t *testing.T) {
	reader := &MockStatusReader{
		GetStatusFunc: func(ctx context.Context, userID string, c category.BudgetCategory) (*category.Status, error) {
			return nil, errors.New("connection refused")
		},
	}
	sel := NewSelector(reader, messages.Default())

	msg, err := sel.Select(context.Background(), "user_1", []*transaction.Transaction{unreviewedTx("Target", category.GeneralMerchandise)})
	if err == nil {
		t.Fatal("Select() error = nil, want lookup error")
	}
	if !msg.IsGeneric() {
		t.Errorf("Select() returned %q, want the generic message", msg.Title)
	}
}

package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"budgetbully/internal/domain/account"
	"budgetbully/internal/domain/category"
	"budgetbully/internal/domain/transaction"
)

// incomeMonths is both the lookback window and the divisor for average income.
const incomeMonths = 5

// Bucket groups budget categories that share a fixed slice of income.
type Bucket struct {
	Name       string
	Ratio      decimal.Decimal
	Categories []category.BudgetCategory
}

// Buckets is the 50/30/20 split. Ratios sum to 1.
var Buckets = []Bucket{
	{
		Name:  "needs",
		Ratio: decimal.NewFromFloat(0.5),
		Categories: []category.BudgetCategory{
			category.BankFees,
			category.Groceries,
			category.Insurance,
			category.RentAndUtilities,
			category.Transportation,
		},
	},
	{
		Name:  "wants",
		Ratio: decimal.NewFromFloat(0.3),
		Categories: []category.BudgetCategory{
			category.EatingOut,
			category.Entertainment,
			category.Subscriptions,
			category.PersonalCare,
			category.GeneralServices,
			category.GeneralMerchandise,
			category.Travel,
		},
	},
	{
		Name:  "savings",
		Ratio: decimal.NewFromFloat(0.2),
		Categories: []category.BudgetCategory{
			category.Savings,
			category.LoanPayments,
		},
	},
}

// Limit is the suggested spending limit for one of a user's budget categories.
type Limit struct {
	UserID   string
	Category category.BudgetCategory
	Limit    decimal.Decimal
}

// incomeWindowStart is the 1st of the month incomeMonths before now.
// Transaction dates are calendar dates stored at UTC midnight.
func incomeWindowStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()-incomeMonths, 1, 0, 0, 0, 0, time.UTC)
}

// AverageMonthlyIncome sums inflows on depository accounts dated inside the
// trailing window and divides by the window length.
func AverageMonthlyIncome(txs []*transaction.Transaction, accounts []*account.Account, now time.Time) decimal.Decimal {
	depository := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		depository[a.ID] = a.IsDepository()
	}

	start := incomeWindowStart(now)
	total := decimal.Zero
	for _, tx := range txs {
		if !tx.Amount.IsPositive() || !depository[tx.AccountID] {
			continue
		}
		if tx.Date.Before(start) {
			continue
		}
		total = total.Add(tx.Amount)
	}

	return total.Div(decimal.NewFromInt(incomeMonths))
}

// spendByCategory sums the absolute value of outflows per budget category.
func spendByCategory(txs []*transaction.Transaction) map[category.BudgetCategory]decimal.Decimal {
	spend := make(map[category.BudgetCategory]decimal.Decimal)
	for _, tx := range txs {
		if !tx.Amount.IsNegative() {
			continue
		}
		spend[tx.Category] = spend[tx.Category].Add(tx.Amount.Abs())
	}
	return spend
}

// ComputeLimits allocates average monthly income across the buckets in
// proportion to each category's share of its bucket's spend. Every bucket
// category gets exactly one entry, zero when its bucket has no spend.
//
// The final entry is INCOME with limit = -averageMonthlyIncome: the income
// ceiling is expressed as a negative spending limit.
//
// Limits keep full precision so each bucket sums to its share of income.
// Cents are rounded by the spending_limit column on write.
func ComputeLimits(userID string, txs []*transaction.Transaction, accounts []*account.Account, now time.Time) []Limit {
	income := AverageMonthlyIncome(txs, accounts, now)
	spend := spendByCategory(txs)

	var limits []Limit
	for _, b := range Buckets {
		bucketSpend := decimal.Zero
		for _, c := range b.Categories {
			bucketSpend = bucketSpend.Add(spend[c])
		}
		budget := income.Mul(b.Ratio)

		for _, c := range b.Categories {
			limit := decimal.Zero
			if bucketSpend.IsPositive() {
				share := spend[c].Div(bucketSpend)
				limit = budget.Mul(share)
			}
			limits = append(limits, Limit{UserID: userID, Category: c, Limit: limit})
		}
	}

	limits = append(limits, Limit{UserID: userID, Category: category.Income, Limit: income.Neg()})
	return limits
}

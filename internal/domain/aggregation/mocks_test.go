package aggregation

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"budgetbully/internal/domain/account"
	"budgetbully/internal/domain/budget"
	"budgetbully/internal/domain/item"
	"budgetbully/internal/domain/transaction"
	"budgetbully/internal/domain/user"
	"budgetbully/internal/infrastructure/plaid"
)

type MockPlaidClient struct {
	SyncTransactionsFunc    func(ctx context.Context, accessToken string, cursor *string, count int) (*plaid.TransactionsSyncResponse, error)
	GetAccountsFunc         func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error)
	RemoveItemFunc          func(ctx context.Context, accessToken string) error
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error)
}

func (m *MockPlaidClient) SyncTransactions(ctx context.Context, accessToken string, cursor *string, count int) (*plaid.TransactionsSyncResponse, error) {
	if m.SyncTransactionsFunc != nil {
		return m.SyncTransactionsFunc(ctx, accessToken, cursor, count)
	}
	return &plaid.TransactionsSyncResponse{}, nil
}

func (m *MockPlaidClient) GetAccounts(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return &plaid.AccountsResponse{}, nil
}

func (m *MockPlaidClient) RemoveItem(ctx context.Context, accessToken string) error {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, accessToken)
	}
	return nil
}

func (m *MockPlaidClient) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return nil, nil
}

// memItemRepo is an in-memory item.Repository.
type memItemRepo struct {
	mu              sync.Mutex
	items           map[string]*item.Item
	UpdateCursorErr error
}

func newMemItemRepo(items ...*item.Item) *memItemRepo {
	r := &memItemRepo{items: make(map[string]*item.Item)}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func (r *memItemRepo) GetByID(ctx context.Context, id string) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *memItemRepo) GetByAccessToken(ctx context.Context, accessToken string) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.AccessToken == accessToken {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memItemRepo) Upsert(ctx context.Context, params item.UpsertParams) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[params.ID]
	if !ok {
		it = &item.Item{ID: params.ID, Status: item.StatusGood}
		r.items[params.ID] = it
	}
	it.UserID = params.UserID
	it.AccessToken = params.AccessToken
	cp := *it
	return &cp, nil
}

func (r *memItemRepo) UpdateCursor(ctx context.Context, id string, cursor string) error {
	if r.UpdateCursorErr != nil {
		return r.UpdateCursorErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if it, ok := r.items[id]; ok {
		it.Cursor = &cursor
	}
	return nil
}

func (r *memItemRepo) UpdateStatus(ctx context.Context, id string, status item.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it, ok := r.items[id]; ok {
		it.Status = status
	}
	return nil
}

func (r *memItemRepo) ListSyncable(ctx context.Context) ([]*item.Item, error) {
	return nil, nil
}

func (r *memItemRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *memItemRepo) get(id string) *item.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

// memAccountRepo is an in-memory account.Repository.
type memAccountRepo struct {
	mu        sync.Mutex
	accounts  map[string]*account.Account
	UpsertErr error
}

func newMemAccountRepo(accounts ...*account.Account) *memAccountRepo {
	r := &memAccountRepo{accounts: make(map[string]*account.Account)}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *memAccountRepo) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	if r.UpsertErr != nil {
		return nil, r.UpsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a := &account.Account{
		ID:      params.ID,
		UserID:  params.UserID,
		ItemID:  params.ItemID,
		Name:    params.Name,
		Balance: params.Balance,
		Type:    params.Type,
		Subtype: params.Subtype,
		Mask:    params.Mask,
	}
	r.accounts[a.ID] = a
	return a, nil
}

func (r *memAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id], nil
}

func (r *memAccountRepo) ListByUserID(ctx context.Context, userID string) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*account.Account
	for _, a := range r.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAccountRepo) DeleteMissing(ctx context.Context, userID, itemID string, keepIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keep := make(map[string]bool, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = true
	}
	var deleted int64
	for id, a := range r.accounts {
		if a.UserID == userID && a.ItemID == itemID && !keep[id] {
			delete(r.accounts, id)
			deleted++
		}
	}
	return deleted, nil
}

// memTransactionRepo is an in-memory transaction.Repository.
type memTransactionRepo struct {
	mu        sync.Mutex
	txs       map[string]*transaction.Transaction
	UpsertErr error
}

func newMemTransactionRepo(txs ...*transaction.Transaction) *memTransactionRepo {
	r := &memTransactionRepo{txs: make(map[string]*transaction.Transaction)}
	for _, tx := range txs {
		r.txs[tx.ID] = tx
	}
	return r
}

func (r *memTransactionRepo) Upsert(ctx context.Context, params transaction.UpsertParams) (*transaction.Transaction, error) {
	if r.UpsertErr != nil {
		return nil, r.UpsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &transaction.Transaction{
		ID:               params.ID,
		AccountID:        params.AccountID,
		UserID:           params.UserID,
		Date:             params.Date,
		Amount:           params.Amount,
		Name:             params.Name,
		Category:         params.Category,
		DetailedCategory: params.DetailedCategory,
		Reviewed:         params.Reviewed,
		Pending:          params.Pending,
		LogoURL:          params.LogoURL,
	}
	r.txs[tx.ID] = tx
	return tx, nil
}

func (r *memTransactionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.txs, id)
	return nil
}

func (r *memTransactionRepo) ListByUserID(ctx context.Context, userID string) ([]*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*transaction.Transaction
	for _, tx := range r.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTransactionRepo) CountByUserID(ctx context.Context, userID string) (int64, error) {
	txs, _ := r.ListByUserID(ctx, userID)
	return int64(len(txs)), nil
}

func (r *memTransactionRepo) get(id string) *transaction.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txs[id]
}

type MockLimitApplier struct {
	ApplyLimitsFunc func(ctx context.Context, userID string, txs []*transaction.Transaction, accounts []*account.Account) *budget.ApplyResult
	calls           int
	lastTxs         []*transaction.Transaction
	lastAccounts    []*account.Account
}

func (m *MockLimitApplier) ApplyLimits(ctx context.Context, userID string, txs []*transaction.Transaction, accounts []*account.Account) *budget.ApplyResult {
	m.calls++
	m.lastTxs = txs
	m.lastAccounts = accounts
	if m.ApplyLimitsFunc != nil {
		return m.ApplyLimitsFunc(ctx, userID, txs, accounts)
	}
	return &budget.ApplyResult{UserID: userID, Written: 16}
}

type MockNotifier struct {
	NotifyUnreviewedFunc func(ctx context.Context, userID string, unreviewed []*transaction.Transaction) bool
	calls                [][]*transaction.Transaction
}

func (m *MockNotifier) NotifyUnreviewed(ctx context.Context, userID string, unreviewed []*transaction.Transaction) bool {
	m.calls = append(m.calls, unreviewed)
	if m.NotifyUnreviewedFunc != nil {
		return m.NotifyUnreviewedFunc(ctx, userID, unreviewed)
	}
	return true
}

type MockLinkTokenResolver struct {
	GetByLinkTokenFunc func(ctx context.Context, linkToken string) (*user.User, error)
}

func (m *MockLinkTokenResolver) GetByLinkToken(ctx context.Context, linkToken string) (*user.User, error) {
	if m.GetByLinkTokenFunc != nil {
		return m.GetByLinkTokenFunc(ctx, linkToken)
	}
	return nil, nil
}

func strPtr(s string) *string { return &s }

func plaidTx(id, date, amount, detailed, primary, name string) plaid.Transaction {
	return plaid.Transaction{
		TransactionID: id,
		AccountID:     "acc-checking",
		Amount:        decimal.RequireFromString(amount),
		Date:          date,
		Name:          name,
		PersonalFinanceCategory: &plaid.PersonalFinanceCategory{
			Primary:  primary,
			Detailed: detailed,
		},
	}
}

func checkingSnapshot() *plaid.AccountsResponse {
	available := decimal.RequireFromString("1250.40")
	return &plaid.AccountsResponse{
		Accounts: []plaid.Account{{
			AccountID: "acc-checking",
			Name:      "Plaid Checking",
			Type:      account.TypeDepository,
			Subtype:   strPtr("checking"),
			Mask:      strPtr("0000"),
			Balances:  plaid.Balances{Available: &available},
		}},
		Item: plaid.Item{ItemID: "item-1"},
	}
}

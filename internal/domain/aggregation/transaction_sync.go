package aggregation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"budgetbully/internal/domain/account"
	"budgetbully/internal/domain/budget"
	"budgetbully/internal/domain/category"
	"budgetbully/internal/domain/item"
	"budgetbully/internal/domain/transaction"
	"budgetbully/internal/infrastructure/plaid"
)

const defaultPersistConcurrency = 8

// LimitApplier recomputes and stores a user's category limits.
type LimitApplier interface {
	ApplyLimits(ctx context.Context, userID string, txs []*transaction.Transaction, accounts []*account.Account) *budget.ApplyResult
}

// Notifier delivers the unreviewed-transactions notification.
type Notifier interface {
	NotifyUnreviewed(ctx context.Context, userID string, unreviewed []*transaction.Transaction) bool
}

// SyncResult contains the results of one item sync
type SyncResult struct {
	ItemID               string
	UserID               string
	Pages                int
	AccountsUpserted     int
	AccountsDeleted      int64
	TransactionsUpserted int
	TransactionsDeleted  int
	LimitsWritten        int
	Notified             bool
	Errors               []string
}

// TransactionSyncService pulls an item's feed from Plaid and applies it to the store
type TransactionSyncService struct {
	client       plaid.ClientInterface
	reconciler   *Reconciler
	items        item.Repository
	accounts     *account.Service
	transactions transaction.Repository
	budgets      LimitApplier
	notifier     Notifier
	locker       ItemLocker
	concurrency  int
	now          func() time.Time
}

// NewTransactionSyncService creates a new transaction sync service.
// concurrency bounds the parallel writes of one sync.
func NewTransactionSyncService(
	client plaid.ClientInterface,
	reconciler *Reconciler,
	items item.Repository,
	accounts *account.Service,
	transactions transaction.Repository,
	budgets LimitApplier,
	notifier Notifier,
	locker ItemLocker,
	concurrency int,
) *TransactionSyncService {
	if concurrency <= 0 {
		concurrency = defaultPersistConcurrency
	}
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &TransactionSyncService{
		client:       client,
		reconciler:   reconciler,
		items:        items,
		accounts:     accounts,
		transactions: transactions,
		budgets:      budgets,
		notifier:     notifier,
		locker:       locker,
		concurrency:  concurrency,
		now:          time.Now,
	}
}

// UpdateTransactions runs a full sync of one item. It fails only when the item
// cannot be loaded or the provider cannot be read; persistence problems are
// collected in the result.
func (s *TransactionSyncService) UpdateTransactions(ctx context.Context, itemID string) (*SyncResult, error) {
	ctx, span := syncTracer.Start(ctx, "sync.update_transactions")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID))

	result, err := s.updateTransactions(ctx, itemID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("sync.transactions_upserted", result.TransactionsUpserted),
		attribute.Int("sync.errors", len(result.Errors)),
	)
	return result, nil
}

func (s *TransactionSyncService) updateTransactions(ctx context.Context, itemID string) (*SyncResult, error) {
	unlock, err := s.locker.Lock(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock item %s: %w", itemID, err)
	}
	defer unlock()

	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		s.countFailure(ctx, "item_lookup")
		return nil, fmt.Errorf("%w: failed to get item: %w", ErrPersistenceFailure, err)
	}
	if it == nil {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	if !it.HasAccessToken() {
		return nil, fmt.Errorf("%w: item %s has no access token", ErrNotFound, itemID)
	}

	result := &SyncResult{ItemID: it.ID, UserID: it.UserID, Errors: []string{}}

	batch, err := s.reconciler.SyncTransactions(ctx, it.AccessToken, it.Cursor)
	if err != nil {
		s.countFailure(ctx, "reconcile")
		s.markItemFailed(ctx, it, err)
		return nil, err
	}
	result.Pages = batch.Pages

	snapshot, err := s.client.GetAccounts(ctx, it.AccessToken)
	if err != nil {
		s.countFailure(ctx, "accounts")
		s.markItemFailed(ctx, it, err)
		return nil, fmt.Errorf("%w: failed to get accounts: %w", ErrUpstreamFailure, err)
	}
	accounts := mapAccounts(snapshot.Accounts, it)

	now := s.now()
	mapped := s.mapTransactions(batch, it.UserID, now, result)

	s.applyLimits(ctx, it.UserID, mapped, batch.Removed, accounts, result)

	retained := transaction.Retain(mapped, now)

	s.persistAccounts(ctx, it, accounts, result)
	s.persistTransactions(ctx, retained, batch.Removed, result)
	s.persistCursor(ctx, it, batch.Cursor, result)

	if unreviewed := transaction.Unreviewed(retained); len(unreviewed) > 0 && s.notifier != nil {
		result.Notified = s.notifier.NotifyUnreviewed(ctx, it.UserID, unreviewed)
	}

	log.Info().
		Str("item_id", it.ID).
		Str("user_id", it.UserID).
		Int("pages", result.Pages).
		Int("accounts_upserted", result.AccountsUpserted).
		Int64("accounts_deleted", result.AccountsDeleted).
		Int("transactions_upserted", result.TransactionsUpserted).
		Int("transactions_deleted", result.TransactionsDeleted).
		Int("limits_written", result.LimitsWritten).
		Bool("notified", result.Notified).
		Int("errors", len(result.Errors)).
		Msg("Item sync completed")

	return result, nil
}

// markItemFailed records the provider's view of the item. Transport errors
// carry no provider code and leave the status alone.
func (s *TransactionSyncService) markItemFailed(ctx context.Context, it *item.Item, cause error) {
	status, ok := statusForError(cause)
	if !ok || status == it.Status {
		return
	}
	if err := s.items.UpdateStatus(ctx, it.ID, status); err != nil {
		log.Error().Str("item_id", it.ID).Err(err).Msg("Failed to update item status")
		return
	}
	log.Warn().Str("item_id", it.ID).Str("status", string(status)).Err(cause).Msg("Item status changed after provider error")
}

func statusForError(err error) (item.Status, bool) {
	switch code := plaid.ErrorCode(err); code {
	case "":
		return "", false
	case plaid.CodeItemLoginRequired:
		return item.StatusLoginRequired, true
	case plaid.CodeMutationDuringPagination:
		return "", false
	default:
		return item.StatusError, true
	}
}

func mapAccounts(snapshot []plaid.Account, it *item.Item) []*account.Account {
	accounts := make([]*account.Account, 0, len(snapshot))
	for _, a := range snapshot {
		accounts = append(accounts, &account.Account{
			ID:      a.AccountID,
			UserID:  it.UserID,
			ItemID:  it.ID,
			Name:    a.Name,
			Balance: a.GetBalance(),
			Type:    a.Type,
			Subtype: a.Subtype,
			Mask:    a.Mask,
		})
	}
	return accounts
}

// mapTransactions converts added and modified provider rows into domain
// transactions. Rows without a usable date are skipped and reported.
func (s *TransactionSyncService) mapTransactions(batch *SyncBatch, userID string, now time.Time, result *SyncResult) []*transaction.Transaction {
	rows := make([]plaid.Transaction, 0, len(batch.Added)+len(batch.Modified))
	rows = append(rows, batch.Added...)
	rows = append(rows, batch.Modified...)

	mapped := make([]*transaction.Transaction, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		date, err := row.GetDate()
		if err != nil {
			errMsg := fmt.Sprintf("%v: transaction %s: %v", ErrValidationFailure, row.TransactionID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Warn().Str("transaction_id", row.TransactionID).Err(err).Msg("Skipping transaction without a usable date")
			continue
		}

		detailed, primary := row.Categories()
		mapped = append(mapped, &transaction.Transaction{
			ID:               row.TransactionID,
			AccountID:        row.AccountID,
			UserID:           userID,
			Date:             date,
			Amount:           row.GetAmount(),
			Name:             row.GetName(),
			Category:         category.MapCategory(detailed, primary),
			DetailedCategory: detailed,
			Reviewed:         transaction.IsReviewed(date, now),
			Pending:          row.Pending,
			LogoURL:          row.LogoURL,
		})
	}
	return mapped
}

// applyLimits recomputes limits from the user's stored history overlaid with
// this batch. Users without stored history get no limits yet.
func (s *TransactionSyncService) applyLimits(ctx context.Context, userID string, mapped []*transaction.Transaction, removed []string, accounts []*account.Account, result *SyncResult) {
	if s.budgets == nil {
		return
	}

	stored, err := s.transactions.ListByUserID(ctx, userID)
	if err != nil {
		s.recordError(result, "failed to list stored transactions", err)
		return
	}
	if len(stored) == 0 {
		return
	}

	// Income is counted on every depository account the user has, not only
	// this item's. Without the full set no limits are written.
	userAccounts, err := s.userAccounts(ctx, userID, accounts)
	if err != nil {
		s.recordError(result, "failed to list stored accounts", err)
		return
	}

	applied := s.budgets.ApplyLimits(ctx, userID, mergeHistory(stored, mapped, removed), userAccounts)
	result.LimitsWritten = applied.Written
	for _, msg := range applied.Errors {
		result.Errors = append(result.Errors, fmt.Sprintf("%v: %s", ErrPersistenceFailure, msg))
	}
}

// userAccounts returns every stored account of the user with the item's
// fresh snapshot overlaid by id.
func (s *TransactionSyncService) userAccounts(ctx context.Context, userID string, snapshot []*account.Account) ([]*account.Account, error) {
	stored, err := s.accounts.ListAccountsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fresh := make(map[string]bool, len(snapshot))
	for _, a := range snapshot {
		fresh[a.ID] = true
	}
	merged := make([]*account.Account, 0, len(stored)+len(snapshot))
	for _, a := range stored {
		if !fresh[a.ID] {
			merged = append(merged, a)
		}
	}
	return append(merged, snapshot...), nil
}

// mergeHistory overlays the batch on stored rows by id and drops removed ids.
// Stored order is kept, new rows follow in batch order.
func mergeHistory(stored, batch []*transaction.Transaction, removed []string) []*transaction.Transaction {
	gone := make(map[string]bool, len(removed))
	for _, id := range removed {
		gone[id] = true
	}
	fresh := make(map[string]*transaction.Transaction, len(batch))
	for _, tx := range batch {
		fresh[tx.ID] = tx
	}

	merged := make([]*transaction.Transaction, 0, len(stored)+len(batch))
	seen := make(map[string]bool, len(stored)+len(batch))
	for _, tx := range stored {
		if gone[tx.ID] {
			continue
		}
		if replacement, ok := fresh[tx.ID]; ok {
			tx = replacement
		}
		merged = append(merged, tx)
		seen[tx.ID] = true
	}
	for _, tx := range batch {
		if gone[tx.ID] || seen[tx.ID] {
			continue
		}
		merged = append(merged, tx)
		seen[tx.ID] = true
	}
	return merged
}

func (s *TransactionSyncService) persistAccounts(ctx context.Context, it *item.Item, accounts []*account.Account, result *SyncResult) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)

	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
		g.Go(func() error {
			_, err := s.accounts.UpsertAccount(ctx, account.UpsertParams{
				ID:      a.ID,
				UserID:  a.UserID,
				ItemID:  a.ItemID,
				Name:    a.Name,
				Balance: a.Balance,
				Type:    a.Type,
				Subtype: a.Subtype,
				Mask:    a.Mask,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.recordError(result, fmt.Sprintf("failed to upsert account %s", a.ID), err)
				return nil
			}
			result.AccountsUpserted++
			return nil
		})
	}
	_ = g.Wait()

	deleted, err := s.accounts.PruneMissing(ctx, it.UserID, it.ID, ids)
	if err != nil {
		s.recordError(result, "failed to delete missing accounts", err)
		return
	}
	result.AccountsDeleted = deleted
}

func (s *TransactionSyncService) persistTransactions(ctx context.Context, retained []*transaction.Transaction, removed []string, result *SyncResult) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)

	for _, tx := range retained {
		g.Go(func() error {
			params := tx.ToUpsertParams()
			err := params.Validate()
			if err != nil {
				err = fmt.Errorf("%w: %v", ErrValidationFailure, err)
			} else {
				_, err = s.transactions.Upsert(ctx, params)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.recordError(result, fmt.Sprintf("failed to upsert transaction %s", tx.ID), err)
				return nil
			}
			result.TransactionsUpserted++
			return nil
		})
	}
	for _, id := range removed {
		g.Go(func() error {
			err := s.transactions.Delete(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.recordError(result, fmt.Sprintf("failed to delete transaction %s", id), err)
				return nil
			}
			result.TransactionsDeleted++
			return nil
		})
	}
	_ = g.Wait()

	syncTxUpserted.Add(ctx, int64(result.TransactionsUpserted))
}

func (s *TransactionSyncService) persistCursor(ctx context.Context, it *item.Item, cursor *string, result *SyncResult) {
	if cursor != nil {
		if err := s.items.UpdateCursor(ctx, it.ID, *cursor); err != nil {
			s.recordError(result, "failed to update cursor", err)
			return
		}
	}
	if it.Status != item.StatusGood {
		if err := s.items.UpdateStatus(ctx, it.ID, item.StatusGood); err != nil {
			s.recordError(result, "failed to update item status", err)
		}
	}
}

// recordError appends a persistence failure to the result. Callers hold any lock guarding result.
func (s *TransactionSyncService) recordError(result *SyncResult, what string, err error) {
	if !errors.Is(err, ErrValidationFailure) {
		err = fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	errMsg := fmt.Sprintf("%s: %v", what, err)
	result.Errors = append(result.Errors, errMsg)
	log.Error().Str("item_id", result.ItemID).Str("user_id", result.UserID).Err(err).Msg(what)
}

func (s *TransactionSyncService) countFailure(ctx context.Context, stage string) {
	syncFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

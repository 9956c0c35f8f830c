package aggregation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"budgetbully/internal/infrastructure/plaid"
)

const (
	DefaultPageSize = 200
	// Plaid asks clients to restart pagination from the original cursor when
	// the feed changes mid-pagination.
	maxPaginationRestarts = 2
)

// SyncBatch is the accumulated result of paging the transaction feed.
type SyncBatch struct {
	Added    []plaid.Transaction
	Modified []plaid.Transaction
	Removed  []string
	// Cursor to store after the batch is applied. Nil when the item has never synced.
	Cursor *string
	Pages  int
}

// Reconciler pages through the provider's incremental feed for one item.
type Reconciler struct {
	client   plaid.ClientInterface
	pageSize int
}

func NewReconciler(client plaid.ClientInterface, pageSize int) *Reconciler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Reconciler{client: client, pageSize: pageSize}
}

// SyncTransactions requests pages sequentially until the feed reports no more data.
// If any page fails the partial data is discarded and the returned batch carries
// the cursor it started from, so the caller makes no progress.
func (r *Reconciler) SyncTransactions(ctx context.Context, accessToken string, cursor *string) (*SyncBatch, error) {
	ctx, span := syncTracer.Start(ctx, "reconciler.sync")
	defer span.End()

	var (
		batch *SyncBatch
		err   error
	)
	for attempt := 0; attempt <= maxPaginationRestarts; attempt++ {
		batch, err = r.paginate(ctx, accessToken, cursor)
		if err == nil || plaid.ErrorCode(err) != plaid.CodeMutationDuringPagination {
			break
		}
		log.Warn().Int("attempt", attempt+1).Msg("Transaction feed changed during pagination, restarting from stored cursor")
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &SyncBatch{Cursor: cursor}, err
	}

	span.SetAttributes(
		attribute.Int("sync.pages", batch.Pages),
		attribute.Int("sync.added", len(batch.Added)),
		attribute.Int("sync.modified", len(batch.Modified)),
		attribute.Int("sync.removed", len(batch.Removed)),
	)
	return batch, nil
}

func (r *Reconciler) paginate(ctx context.Context, accessToken string, cursor *string) (*SyncBatch, error) {
	batch := &SyncBatch{Cursor: cursor}
	next := cursor

	for hasMore := true; hasMore; {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: sync cancelled: %w", ErrUpstreamFailure, err)
		}

		page, err := r.client.SyncTransactions(ctx, accessToken, next, r.pageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to fetch page %d: %w", ErrUpstreamFailure, batch.Pages+1, err)
		}
		batch.Pages++
		syncPages.Add(ctx, 1)

		batch.Added = append(batch.Added, page.Added...)
		batch.Modified = append(batch.Modified, page.Modified...)
		for _, removed := range page.Removed {
			batch.Removed = append(batch.Removed, removed.TransactionID)
		}

		nextCursor := page.NextCursor
		next = &nextCursor
		hasMore = page.HasMore
	}

	batch.Cursor = next
	return batch, nil
}

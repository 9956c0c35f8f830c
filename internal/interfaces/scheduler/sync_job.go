package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"budgetbully/internal/domain/aggregation"
)

// ItemSyncer runs one sync of a linked item.
type ItemSyncer interface {
	UpdateTransactions(ctx context.Context, itemID string) (*aggregation.SyncResult, error)
}

// ItemSyncJob implements the Job interface for syncing one item's transactions
type ItemSyncJob struct {
	itemID string
	syncer ItemSyncer
}

// NewItemSyncJob creates a new sync job for an item
func NewItemSyncJob(itemID string, syncer ItemSyncer) *ItemSyncJob {
	return &ItemSyncJob{itemID: itemID, syncer: syncer}
}

// Execute runs the item sync. Partial persistence failures are logged but do
// not fail the job; the next sync retries from the stored cursor.
func (j *ItemSyncJob) Execute(ctx context.Context) error {
	result, err := j.syncer.UpdateTransactions(ctx, j.itemID)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if len(result.Errors) > 0 {
		log.Warn().
			Str("item_id", j.itemID).
			Strs("errors", result.Errors).
			Msg("Item sync completed with persistence errors")
	}
	return nil
}

// ItemID returns the item associated with this job
func (j *ItemSyncJob) ItemID() string {
	return j.itemID
}

// Description returns a human-readable description of the job
func (j *ItemSyncJob) Description() string {
	return fmt.Sprintf("Transaction sync for item %s", j.itemID)
}

// SyncQueue submits item sync jobs to a worker pool. It satisfies the
// listener's SyncQueuer and the webhook handler's queue.
type SyncQueue struct {
	pool   *WorkerPool
	syncer ItemSyncer
}

// NewSyncQueue creates a queue that turns item ids into sync jobs on pool.
func NewSyncQueue(pool *WorkerPool, syncer ItemSyncer) *SyncQueue {
	return &SyncQueue{pool: pool, syncer: syncer}
}

// QueueSync submits a sync for itemID. It reports false when the job was dropped.
func (q *SyncQueue) QueueSync(itemID string) bool {
	if itemID == "" {
		return false
	}
	if err := q.pool.Submit(NewItemSyncJob(itemID, q.syncer)); err != nil {
		log.Warn().Str("item_id", itemID).Err(err).Msg("Failed to queue item sync")
		return false
	}
	return true
}

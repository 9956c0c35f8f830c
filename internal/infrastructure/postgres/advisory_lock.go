package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"budgetbully/internal/domain/aggregation"
)

// AdvisoryLocker serialises item syncs across processes with session-level
// advisory locks. Each held lock pins one pooled connection.
type AdvisoryLocker struct {
	db *DB
}

var _ aggregation.ItemLocker = (*AdvisoryLocker)(nil)

func NewAdvisoryLocker(db *DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

// Lock blocks until the lock for itemID is granted or ctx is done.
func (l *AdvisoryLocker) Lock(ctx context.Context, itemID string) (func(), error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection for advisory lock: %w", err)
	}

	ctx, span := dbTracer.Start(ctx, "db.AdvisoryLock")
	defer span.End()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, itemID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled.
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := conn.ExecContext(unlockCtx, `SELECT pg_advisory_unlock(hashtext($1))`, itemID); err != nil {
				log.Error().Str("item_id", itemID).Err(err).Msg("Failed to release advisory lock")
				// Discard the session so the lock cannot leak back into the pool.
				_ = conn.Raw(func(any) error { return driver.ErrBadConn })
			}
			conn.Close()
		})
	}, nil
}

package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"budgetbully/internal/domain/account"
	"budgetbully/internal/domain/category"
	"budgetbully/internal/domain/transaction"
)

const defaultConcurrency = 8

// ApplyResult reports how many category limits were written.
type ApplyResult struct {
	UserID  string
	Written int
	Errors  []string
}

// Service recomputes and stores suggested category limits.
type Service struct {
	repo        category.Repository
	concurrency int
	now         func() time.Time
}

// NewService creates a budget service. concurrency bounds parallel limit writes.
func NewService(repo category.Repository, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{repo: repo, concurrency: concurrency, now: time.Now}
}

// ApplyLimits computes limits for the user and writes each one independently.
// A failed write is recorded and does not stop or undo the others.
func (s *Service) ApplyLimits(ctx context.Context, userID string, txs []*transaction.Transaction, accounts []*account.Account) *ApplyResult {
	result := &ApplyResult{UserID: userID, Errors: []string{}}
	limits := ComputeLimits(userID, txs, accounts, s.now())

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)

	for _, l := range limits {
		g.Go(func() error {
			_, err := s.repo.UpsertLimit(ctx, category.UpsertLimitParams{
				UserID:   l.UserID,
				Category: l.Category,
				Limit:    l.Limit,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errMsg := fmt.Sprintf("failed to write %s limit: %v", l.Category, err)
				result.Errors = append(result.Errors, errMsg)
				log.Error().Str("user_id", userID).Str("category", l.Category.String()).Err(err).Msg("Failed to write category limit")
				return nil
			}
			result.Written++
			return nil
		})
	}
	_ = g.Wait()

	log.Info().Str("user_id", userID).Int("written", result.Written).Int("errors", len(result.Errors)).Msg("Category limits updated")
	return result
}

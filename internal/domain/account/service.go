package account

import (
	"context"
	"errors"
	"fmt"
)

// Service contains the business logic for account operations
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetAccount retrieves an account by ID and verifies user ownership
func (s *Service) GetAccount(ctx context.Context, accountID, userID string) (*Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.UserID != userID {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// ListAccountsByUserID retrieves all accounts for a specific user
func (s *Service) ListAccountsByUserID(ctx context.Context, userID string) ([]*Account, error) {
	if userID == "" {
		return nil, errors.New("valid user ID is required")
	}

	return s.repo.ListByUserID(ctx, userID)
}

// UpsertAccount creates or updates an account with validation
func (s *Service) UpsertAccount(ctx context.Context, params UpsertParams) (*Account, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.repo.Upsert(ctx, params)
}

// PruneMissing deletes the user's accounts on an item that are absent from the snapshot ids.
// An empty snapshot is treated as incomplete and deletes nothing.
func (s *Service) PruneMissing(ctx context.Context, userID, itemID string, snapshotIDs []string) (int64, error) {
	if len(snapshotIDs) == 0 {
		return 0, nil
	}
	if userID == "" || itemID == "" {
		return 0, fmt.Errorf("%w: user and item ID are required", ErrInvalidInput)
	}

	return s.repo.DeleteMissing(ctx, userID, itemID, snapshotIDs)
}

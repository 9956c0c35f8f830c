package aggregation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"budgetbully/internal/domain/item"
	"budgetbully/internal/domain/user"
	"budgetbully/internal/infrastructure/plaid"
)

// LinkTokenResolver finds the user a Link session belongs to.
type LinkTokenResolver interface {
	GetByLinkToken(ctx context.Context, linkToken string) (*user.User, error)
}

// ItemService manages the lifecycle of linked items outside of syncs
type ItemService struct {
	client plaid.ClientInterface
	items  item.Repository
	users  LinkTokenResolver
}

func NewItemService(client plaid.ClientInterface, items item.Repository, users LinkTokenResolver) *ItemService {
	return &ItemService{client: client, items: items, users: users}
}

// ExchangePublicToken finishes a Link session: it trades the public token for
// an access token and stores the item. The returned item id is ready to sync.
func (s *ItemService) ExchangePublicToken(ctx context.Context, linkToken, publicToken string) (string, error) {
	if linkToken == "" || publicToken == "" {
		return "", fmt.Errorf("%w: link token and public token are required", ErrValidationFailure)
	}

	u, err := s.users.GetByLinkToken(ctx, linkToken)
	if err != nil {
		return "", fmt.Errorf("%w: failed to resolve link token: %w", ErrPersistenceFailure, err)
	}
	if u == nil {
		return "", fmt.Errorf("%w: no user for link token", ErrNotFound)
	}

	exchanged, err := s.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return "", fmt.Errorf("%w: failed to exchange public token: %w", ErrUpstreamFailure, err)
	}

	params := item.UpsertParams{ID: exchanged.ItemID, UserID: u.ID, AccessToken: exchanged.AccessToken}
	if err := params.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidationFailure, err)
	}
	if _, err := s.items.Upsert(ctx, params); err != nil {
		return "", fmt.Errorf("%w: failed to store item: %w", ErrPersistenceFailure, err)
	}

	log.Info().Str("item_id", exchanged.ItemID).Str("user_id", u.ID).Msg("Linked item stored")
	return exchanged.ItemID, nil
}

// RemoveItem revokes the item at Plaid and deletes it locally.
func (s *ItemService) RemoveItem(ctx context.Context, itemID string) error {
	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("%w: failed to get item: %w", ErrPersistenceFailure, err)
	}
	if it == nil {
		return fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}

	if it.HasAccessToken() {
		if err := s.client.RemoveItem(ctx, it.AccessToken); err != nil {
			return fmt.Errorf("%w: failed to remove item at provider: %w", ErrUpstreamFailure, err)
		}
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("%w: failed to delete item: %w", ErrPersistenceFailure, err)
	}

	log.Info().Str("item_id", itemID).Str("user_id", it.UserID).Msg("Item removed")
	return nil
}

// SetStatus records a status reported by an ITEM webhook.
func (s *ItemService) SetStatus(ctx context.Context, itemID string, status item.Status) error {
	if !item.IsValidStatus(status) {
		return fmt.Errorf("%w: %w", ErrValidationFailure, item.ErrInvalidStatus)
	}

	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("%w: failed to get item: %w", ErrPersistenceFailure, err)
	}
	if it == nil {
		return fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	if it.Status == status {
		return nil
	}

	if err := s.items.UpdateStatus(ctx, itemID, status); err != nil {
		return fmt.Errorf("%w: failed to update item status: %w", ErrPersistenceFailure, err)
	}
	log.Info().Str("item_id", itemID).Str("status", string(status)).Msg("Item status updated")
	return nil
}

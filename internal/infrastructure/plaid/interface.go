package plaid

import (
	"context"
)

// ClientInterface defines the methods required from the Plaid API client
type ClientInterface interface {
	// SyncTransactions fetches one page of the incremental transaction feed.
	// A nil cursor requests the feed from the beginning.
	SyncTransactions(ctx context.Context, accessToken string, cursor *string, count int) (*TransactionsSyncResponse, error)
	GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error)
	RemoveItem(ctx context.Context, accessToken string) error
	ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error)
}

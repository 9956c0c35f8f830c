package plaid

import (
	"context"
	"fmt"
	"net/http"
	"time"

	plaidsdk "github.com/plaid/plaid-go/v29/plaid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 60 * time.Second

var environments = map[string]plaidsdk.Environment{
	"sandbox":     plaidsdk.Sandbox,
	"development": plaidsdk.Environment("https://development.plaid.com"),
	"production":  plaidsdk.Production,
}

// Client handles communication with the Plaid API
type Client struct {
	api *plaidsdk.APIClient
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a Plaid client for the named environment
func NewClient(clientID, secret, env string) (*Client, error) {
	baseURL, ok := environments[env]
	if !ok {
		return nil, fmt.Errorf("unknown plaid environment %q", env)
	}
	if clientID == "" || secret == "" {
		return nil, fmt.Errorf("plaid client ID and secret are required")
	}

	return newClient(clientID, secret, baseURL, &http.Client{
		Timeout:   defaultTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}), nil
}

func newClient(clientID, secret string, env plaidsdk.Environment, httpClient *http.Client) *Client {
	cfg := plaidsdk.NewConfiguration()
	cfg.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	cfg.AddDefaultHeader("PLAID-SECRET", secret)
	cfg.UseEnvironment(env)
	cfg.HTTPClient = httpClient

	return &Client{api: plaidsdk.NewAPIClient(cfg)}
}

// SyncTransactions fetches one page of added, modified and removed transactions
func (c *Client) SyncTransactions(ctx context.Context, accessToken string, cursor *string, count int) (*TransactionsSyncResponse, error) {
	req := plaidsdk.NewTransactionsSyncRequest(accessToken)
	if cursor != nil {
		req.SetCursor(*cursor)
	}
	if count > 0 {
		req.SetCount(int32(count))
	}

	resp, httpResp, err := c.api.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*req).Execute()
	if err != nil {
		return nil, toError(err, httpResp)
	}

	return &TransactionsSyncResponse{
		Added:      fromSDKTransactions(resp.GetAdded()),
		Modified:   fromSDKTransactions(resp.GetModified()),
		Removed:    fromSDKRemoved(resp.GetRemoved()),
		NextCursor: resp.GetNextCursor(),
		HasMore:    resp.GetHasMore(),
		RequestID:  resp.GetRequestId(),
	}, nil
}

// GetAccounts fetches the current account snapshot for an item
func (c *Client) GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	req := plaidsdk.NewAccountsGetRequest(accessToken)

	resp, httpResp, err := c.api.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*req).Execute()
	if err != nil {
		return nil, toError(err, httpResp)
	}

	accounts := make([]Account, 0, len(resp.GetAccounts()))
	for _, a := range resp.GetAccounts() {
		accounts = append(accounts, fromSDKAccount(a))
	}

	sdkItem := resp.GetItem()
	it := Item{ItemID: sdkItem.GetItemId()}
	if inst, ok := sdkItem.GetInstitutionIdOk(); ok && inst != nil {
		it.InstitutionID = inst
	}

	return &AccountsResponse{Accounts: accounts, Item: it, RequestID: resp.GetRequestId()}, nil
}

// RemoveItem invalidates the access token at Plaid
func (c *Client) RemoveItem(ctx context.Context, accessToken string) error {
	req := plaidsdk.NewItemRemoveRequest(accessToken)

	_, httpResp, err := c.api.PlaidApi.ItemRemove(ctx).ItemRemoveRequest(*req).Execute()
	if err != nil {
		return toError(err, httpResp)
	}
	return nil
}

// ExchangePublicToken trades a Link public token for a permanent access token
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error) {
	req := plaidsdk.NewItemPublicTokenExchangeRequest(publicToken)

	resp, httpResp, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return nil, toError(err, httpResp)
	}

	return &ExchangeResponse{
		AccessToken: resp.GetAccessToken(),
		ItemID:      resp.GetItemId(),
		RequestID:   resp.GetRequestId(),
	}, nil
}

// toError turns an SDK failure into a *Error when the body carries a Plaid
// error object. Transport failures and unparseable bodies are wrapped as is.
func toError(err error, resp *http.Response) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	perr, convErr := plaidsdk.ToPlaidError(err)
	if convErr != nil || perr.GetErrorCode() == "" {
		if status != 0 {
			return fmt.Errorf("API request failed with status %d: %w", status, err)
		}
		return fmt.Errorf("failed to execute request: %w", err)
	}

	out := &Error{
		StatusCode:   status,
		ErrorType:    string(perr.GetErrorType()),
		ErrorCode:    perr.GetErrorCode(),
		ErrorMessage: perr.GetErrorMessage(),
		RequestID:    perr.GetRequestId(),
	}
	if msg, ok := perr.GetDisplayMessageOk(); ok && msg != nil {
		out.DisplayMessage = msg
	}
	return out
}

func fromSDKTransactions(txs []plaidsdk.Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		tx := Transaction{
			TransactionID: t.GetTransactionId(),
			AccountID:     t.GetAccountId(),
			Amount:        decimal.NewFromFloat(t.GetAmount()),
			Date:          t.GetDate(),
			Name:          t.GetName(),
			Pending:       t.GetPending(),
		}
		if v, ok := t.GetIsoCurrencyCodeOk(); ok && v != nil {
			tx.IsoCurrencyCode = v
		}
		if v, ok := t.GetAuthorizedDateOk(); ok && v != nil {
			tx.AuthorizedDate = v
		}
		if v, ok := t.GetMerchantNameOk(); ok && v != nil {
			tx.MerchantName = v
		}
		if v, ok := t.GetLogoUrlOk(); ok && v != nil {
			tx.LogoURL = v
		}
		if pfc, ok := t.GetPersonalFinanceCategoryOk(); ok && pfc != nil {
			tx.PersonalFinanceCategory = &PersonalFinanceCategory{
				Primary:         pfc.GetPrimary(),
				Detailed:        pfc.GetDetailed(),
				ConfidenceLevel: pfc.GetConfidenceLevel(),
			}
		}
		out = append(out, tx)
	}
	return out
}

func fromSDKRemoved(removed []plaidsdk.RemovedTransaction) []RemovedTransaction {
	out := make([]RemovedTransaction, 0, len(removed))
	for _, r := range removed {
		out = append(out, RemovedTransaction{TransactionID: r.GetTransactionId(), AccountID: r.GetAccountId()})
	}
	return out
}

func fromSDKAccount(a plaidsdk.AccountBase) Account {
	acc := Account{
		AccountID: a.GetAccountId(),
		Name:      a.GetName(),
		Type:      string(a.GetType()),
	}
	if v, ok := a.GetOfficialNameOk(); ok && v != nil {
		acc.OfficialName = v
	}
	if v, ok := a.GetMaskOk(); ok && v != nil {
		acc.Mask = v
	}
	if v, ok := a.GetSubtypeOk(); ok && v != nil {
		subtype := string(*v)
		acc.Subtype = &subtype
	}

	b := a.GetBalances()
	if v, ok := b.GetAvailableOk(); ok && v != nil {
		d := decimal.NewFromFloat(*v)
		acc.Balances.Available = &d
	}
	if v, ok := b.GetCurrentOk(); ok && v != nil {
		d := decimal.NewFromFloat(*v)
		acc.Balances.Current = &d
	}
	if v, ok := b.GetIsoCurrencyCodeOk(); ok && v != nil {
		acc.Balances.IsoCurrencyCode = v
	}
	return acc
}

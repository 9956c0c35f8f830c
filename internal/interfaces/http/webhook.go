package http

import (
	"context"
	"encoding/json"
	"net/http"

	"budgetbully/internal/domain/item"
	"budgetbully/internal/infrastructure/plaid"
	"budgetbully/internal/shared/logger"
)

const maxWebhookBody = 1 << 20

// Webhook types and codes handled by WebhookHandler.
const (
	TypeTransactions = "TRANSACTIONS"
	TypeItem         = "ITEM"
	TypeLink         = "LINK"

	CodeSyncUpdatesAvailable = "SYNC_UPDATES_AVAILABLE"
	CodeDefaultUpdate        = "DEFAULT_UPDATE"
	CodeError                = "ERROR"
	CodePendingExpiration    = "PENDING_EXPIRATION"
	CodeLoginRepaired        = "LOGIN_REPAIRED"
	CodeSessionFinished      = "SESSION_FINISHED"

	linkStatusSuccess = "success"
)

// ItemManager is the subset of the item service used by webhooks.
type ItemManager interface {
	ExchangePublicToken(ctx context.Context, linkToken, publicToken string) (string, error)
	SetStatus(ctx context.Context, itemID string, status item.Status) error
}

// SyncQueuer accepts item syncs for background processing.
type SyncQueuer interface {
	QueueSync(itemID string) bool
}

// WebhookHandler receives aggregation provider webhooks. Signature
// verification happens before requests reach it.
type WebhookHandler struct {
	items ItemManager
	queue SyncQueuer
}

func NewWebhookHandler(items ItemManager, queue SyncQueuer) *WebhookHandler {
	return &WebhookHandler{items: items, queue: queue}
}

// WebhookPayload holds the webhook fields this service reads.
type WebhookPayload struct {
	WebhookType  string       `json:"webhook_type"`
	WebhookCode  string       `json:"webhook_code"`
	ItemID       string       `json:"item_id"`
	Error        *plaid.Error `json:"error,omitempty"`
	LinkToken    string       `json:"link_token"`
	PublicTokens []string     `json:"public_tokens"`
	Status       string       `json:"status"`
}

type webhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandlePlaid acknowledges every well-formed webhook with 200. Sync failures
// show up in logs and metrics only.
func (h *WebhookHandler) HandlePlaid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload WebhookPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Success: false, Message: "Invalid webhook payload"})
		return
	}
	if payload.WebhookType == "" || payload.WebhookCode == "" {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Success: false, Message: "webhook_type and webhook_code are required"})
		return
	}

	l := logger.FromContext(r.Context()).With().
		Str("webhook_type", payload.WebhookType).
		Str("webhook_code", payload.WebhookCode).
		Str("item_id", payload.ItemID).
		Logger()
	l.Info().Msg("Webhook received")

	message := h.dispatch(logger.WithContext(r.Context(), l), payload)
	writeJSON(w, http.StatusOK, webhookResponse{Success: true, Message: message})
}

func (h *WebhookHandler) dispatch(ctx context.Context, p WebhookPayload) string {
	switch p.WebhookType {
	case TypeTransactions:
		switch p.WebhookCode {
		case CodeSyncUpdatesAvailable, CodeDefaultUpdate:
			return h.queueSync(ctx, p.ItemID)
		}

	case TypeItem:
		switch p.WebhookCode {
		case CodeError:
			status := item.StatusError
			if p.Error != nil && p.Error.ErrorCode == plaid.CodeItemLoginRequired {
				status = item.StatusLoginRequired
			}
			return h.setStatus(ctx, p.ItemID, status)
		case CodePendingExpiration:
			return h.setStatus(ctx, p.ItemID, item.StatusPendingExpiration)
		case CodeLoginRepaired:
			return h.setStatus(ctx, p.ItemID, item.StatusGood)
		}

	case TypeLink:
		if p.WebhookCode == CodeSessionFinished {
			return h.finishLink(ctx, p)
		}
	}

	return "Webhook received"
}

func (h *WebhookHandler) queueSync(ctx context.Context, itemID string) string {
	l := logger.FromContext(ctx)
	if itemID == "" {
		l.Warn().Msg("Sync webhook without item_id")
		return "Webhook received"
	}
	if !h.queue.QueueSync(itemID) {
		l.Warn().Msg("Sync not queued")
		return "Sync not queued"
	}
	return "Sync queued"
}

func (h *WebhookHandler) setStatus(ctx context.Context, itemID string, status item.Status) string {
	l := logger.FromContext(ctx)
	if err := h.items.SetStatus(ctx, itemID, status); err != nil {
		l.Error().Err(err).Str("status", string(status)).Msg("Failed to update item status")
		return "Item status not updated"
	}
	l.Info().Str("status", string(status)).Msg("Item status updated")
	return "Item status updated"
}

func (h *WebhookHandler) finishLink(ctx context.Context, p WebhookPayload) string {
	l := logger.FromContext(ctx)
	if p.Status != linkStatusSuccess {
		l.Info().Str("link_status", p.Status).Msg("Link session did not succeed")
		return "Webhook received"
	}
	if len(p.PublicTokens) == 0 {
		l.Warn().Msg("Link session finished without public tokens")
		return "No public token to exchange"
	}

	itemID, err := h.items.ExchangePublicToken(ctx, p.LinkToken, p.PublicTokens[0])
	if err != nil {
		l.Error().Err(err).Msg("Failed to exchange public token")
		return "Public token exchange failed"
	}

	l.Info().Str("linked_item_id", itemID).Msg("Public token exchanged")
	if !h.queue.QueueSync(itemID) {
		l.Warn().Str("linked_item_id", itemID).Msg("Initial sync not queued")
	}
	return "Public token exchanged successfully"
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

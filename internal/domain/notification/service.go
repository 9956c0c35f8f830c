package notification

import (
	"context"

	"github.com/rs/zerolog/log"

	"budgetbully/internal/domain/transaction"
)

// PushTokenResolver returns a user's device token, or nil if none is registered.
type PushTokenResolver interface {
	GetPushToken(ctx context.Context, userID string) (*string, error)
}

// Service contains the business logic for notification operations
type Service struct {
	repo      Repository
	messenger Messenger
	tokens    PushTokenResolver
	selector  *Selector
}

// NewService creates a new notification service. messenger may be nil, in
// which case alerts are stored but nothing is pushed.
func NewService(repo Repository, messenger Messenger, tokens PushTokenResolver, selector *Selector) *Service {
	return &Service{repo: repo, messenger: messenger, tokens: tokens, selector: selector}
}

// NotifyUnreviewed pushes one message about the unreviewed transactions and
// records it as an alert. Delivery problems are logged, never returned.
// It reports whether a push was handed to the messenger.
func (s *Service) NotifyUnreviewed(ctx context.Context, userID string, unreviewed []*transaction.Transaction) bool {
	if len(unreviewed) == 0 {
		return false
	}

	token, err := s.tokens.GetPushToken(ctx, userID)
	if err != nil {
		log.Error().Str("user_id", userID).Err(err).Msg("Failed to resolve push token")
		return false
	}
	if token == nil || *token == "" {
		log.Info().Str("user_id", userID).Msg("No push token registered, skipping notification")
		return false
	}

	msg, err := s.selector.Select(ctx, userID, unreviewed)
	if err != nil {
		// Select still returns the generic message.
		log.Warn().Str("user_id", userID).Err(err).Msg("Category status lookup failed, sending generic notification")
	}

	sent := s.SendToToken(ctx, *token, msg)
	s.storeAlert(ctx, userID, msg)
	return sent
}

// SendToToken pushes msg to a device token. Errors are logged.
func (s *Service) SendToToken(ctx context.Context, token string, msg Message) bool {
	if token == "" {
		log.Warn().Err(ErrInvalidToken).Msg("Notification not sent")
		return false
	}
	if s.messenger == nil {
		log.Info().Str("title", msg.Title).Msg("No messenger configured, notification not pushed")
		return false
	}

	if err := s.messenger.Send(ctx, token, msg); err != nil {
		log.Error().Err(err).Str("title", msg.Title).Msg("Failed to send notification")
		return false
	}
	return true
}

func (s *Service) storeAlert(ctx context.Context, userID string, msg Message) {
	params := CreateAlertParams{
		UserID:  userID,
		Type:    AlertUncategorizedTransaction,
		Message: msg.Body,
	}
	if !msg.IsGeneric() {
		target := msg.Category.String()
		params.Target = &target
	}

	if _, err := s.repo.CreateAlert(ctx, params); err != nil {
		log.Error().Str("user_id", userID).Err(err).Msg("Failed to store alert")
	}
}

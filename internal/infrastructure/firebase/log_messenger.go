package firebase

import (
	"context"

	"github.com/rs/zerolog/log"

	"budgetbully/internal/domain/notification"
)

// LogMessenger stands in for FCM when no credentials are configured.
// Messages are written to the log instead of pushed.
type LogMessenger struct{}

var _ notification.Messenger = LogMessenger{}

func (LogMessenger) Send(_ context.Context, token string, msg notification.Message) error {
	if token == "" {
		return notification.ErrInvalidToken
	}
	log.Info().
		Str("title", msg.Title).
		Str("subtitle", msg.Subtitle).
		Str("body", msg.Body).
		Msg("Push notification (not delivered, FCM disabled)")
	return nil
}

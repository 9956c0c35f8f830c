package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"budgetbully/internal/domain/notification"
)

const defaultSound = "default"

// TokenDeactivator is called when FCM rejects a device token as unregistered.
type TokenDeactivator func(ctx context.Context, token string) error

// sender is the subset of *messaging.Client used here.
type sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Client implements notification.Messenger using Firebase Cloud Messaging
type Client struct {
	msgClient   sender
	deactivator TokenDeactivator
}

var _ notification.Messenger = (*Client)(nil)

// NewClient initializes a Firebase app and returns an FCM client.
// deactivator may be nil.
func NewClient(ctx context.Context, credentialsFile string, deactivator TokenDeactivator) (*Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging client: %w", err)
	}

	return &Client{msgClient: msgClient, deactivator: deactivator}, nil
}

// Send pushes msg to a single device token.
func (c *Client) Send(ctx context.Context, token string, msg notification.Message) error {
	if token == "" {
		return notification.ErrInvalidToken
	}

	messageID, err := c.msgClient.Send(ctx, buildMessage(token, msg))
	if err != nil {
		if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
			log.Warn().Err(err).Msg("Invalid FCM token, deactivating")
			c.deactivateToken(ctx, token)
			return fmt.Errorf("%w: %w", notification.ErrInvalidToken, err)
		}
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	log.Debug().Str("message_id", messageID).Str("title", msg.Title).Msg("FCM message sent")
	return nil
}

func buildMessage(token string, msg notification.Message) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title:    msg.Title,
						SubTitle: msg.Subtitle,
						Body:     msg.Body,
					},
					Sound: defaultSound,
				},
			},
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Sound: defaultSound,
			},
		},
	}
}

func (c *Client) deactivateToken(ctx context.Context, token string) {
	if c.deactivator == nil {
		return
	}
	if err := c.deactivator(ctx, token); err != nil {
		log.Error().Err(err).Msg("Failed to deactivate FCM token")
	}
}

// Package notification adapts Firebase Cloud Messaging to the fan-out's
// token validation and push dispatch steps.
package notification

import (
	"context"

	"github.com/rs/zerolog"

	authrepo "collab-backend/internal/auth/repository"
	"collab-backend/internal/fanout"
	"collab-backend/pkg/apperror"
	"collab-backend/pkg/fcm"
)

// PushClient is the subset of the FCM client the adapters need.
type PushClient interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.NotificationData) ([]string, error)
	ValidateTokens(ctx context.Context, tokens []string) (valid, invalid []string, err error)
}

// TokenValidator loads a recipient's device tokens and asks FCM which of
// them are still registered. Without a push client every stored token is
// considered valid.
type TokenValidator struct {
	devices authrepo.DeviceTokenRepository
	client  PushClient
}

func NewTokenValidator(devices authrepo.DeviceTokenRepository, client PushClient) *TokenValidator {
	return &TokenValidator{devices: devices, client: client}
}

func (v *TokenValidator) Validate(ctx context.Context, recipientID uint) (fanout.TokenSet, error) {
	stored, err := v.devices.GetTokensByUserID(ctx, recipientID)
	if err != nil {
		return fanout.TokenSet{}, apperror.Internal("load device tokens", err)
	}
	if len(stored) == 0 {
		return fanout.TokenSet{}, nil
	}
	tokens := make([]string, 0, len(stored))
	for _, t := range stored {
		tokens = append(tokens, t.Token)
	}
	if v.client == nil {
		return fanout.TokenSet{Valid: tokens}, nil
	}

	valid, invalid, err := v.client.ValidateTokens(ctx, tokens)
	if err != nil {
		return fanout.TokenSet{}, apperror.External("fcm", err)
	}
	return fanout.TokenSet{Valid: valid, Invalid: invalid}, nil
}

// Dispatcher sends one push notification to a recipient's valid tokens.
type Dispatcher struct {
	client PushClient
	log    zerolog.Logger
}

func NewDispatcher(client PushClient, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{client: client, log: log}
}

func (d *Dispatcher) Dispatch(ctx context.Context, tokens []string, n fanout.Notification, data map[string]string) error {
	if d.client == nil {
		d.log.Debug().Int("tokens", len(tokens)).Str("title", n.Title).Msg("push disabled, skipping dispatch")
		return nil
	}
	stale, err := d.client.SendToDevices(ctx, tokens, fcm.NotificationData{
		Title:    n.Title,
		Body:     n.Body,
		ImageURL: n.ImageURL,
		Data:     data,
	})
	if err != nil {
		return apperror.External("fcm", err)
	}
	if len(stale) > 0 {
		// picked up by the next validation pass
		d.log.Debug().Int("stale", len(stale)).Msg("tokens went stale between validate and send")
	}
	return nil
}

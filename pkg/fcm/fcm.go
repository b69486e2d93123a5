package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// maxBatch is the FCM limit for a single SendEach call.
const maxBatch = 500

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient *messaging.Client
	log             zerolog.Logger
}

// NewClient creates a new FCM client using the provided credentials file
func NewClient(ctx context.Context, credentialsFile string, log zerolog.Logger) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Info().Msg("FCM client initialized")
	return &Client{
		messagingClient: messagingClient,
		log:             log,
	}, nil
}

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title    string
	Body     string
	ImageURL string            // Optional notification image
	Data     map[string]string // Custom data payload
}

// SendToDevices sends a push notification to multiple device tokens.
// Returns the tokens FCM reported as unregistered or malformed.
func (c *Client) SendToDevices(ctx context.Context, tokens []string, notification NotificationData) ([]string, error) {
	var invalid []string
	for start := 0; start < len(tokens); start += maxBatch {
		batch := tokens[start:min(start+maxBatch, len(tokens))]
		message := &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title:    notification.Title,
				Body:     notification.Body,
				ImageURL: notification.ImageURL,
			},
			Data: notification.Data,
			Webpush: &messaging.WebpushConfig{
				Notification: &messaging.WebpushNotification{
					Title: notification.Title,
					Body:  notification.Body,
					Icon:  "/icon-192.svg",
				},
			},
		}

		response, err := c.messagingClient.SendEachForMulticast(ctx, message)
		if err != nil {
			return invalid, fmt.Errorf("failed to send FCM multicast message: %w", err)
		}
		c.log.Debug().
			Int("success", response.SuccessCount).
			Int("failure", response.FailureCount).
			Msg("multicast sent")

		for i, resp := range response.Responses {
			if resp.Success {
				continue
			}
			if isInvalidToken(resp.Error) {
				invalid = append(invalid, batch[i])
				continue
			}
			c.log.Warn().Err(resp.Error).Str("token", mask(batch[i])).Msg("send to token failed")
		}
	}
	return invalid, nil
}

// ValidateTokens dry-runs a data message to each token and splits them into
// tokens FCM would accept and tokens it rejects as unregistered or malformed.
// Tokens failing for any other reason are treated as valid.
func (c *Client) ValidateTokens(ctx context.Context, tokens []string) (valid, invalid []string, err error) {
	for start := 0; start < len(tokens); start += maxBatch {
		batch := tokens[start:min(start+maxBatch, len(tokens))]
		messages := make([]*messaging.Message, 0, len(batch))
		for _, token := range batch {
			messages = append(messages, &messaging.Message{
				Token: token,
				Data:  map[string]string{"validate": "1"},
			})
		}

		response, err := c.messagingClient.SendEachDryRun(ctx, messages)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to validate FCM tokens: %w", err)
		}
		for i, resp := range response.Responses {
			if !resp.Success && isInvalidToken(resp.Error) {
				invalid = append(invalid, batch[i])
				continue
			}
			valid = append(valid, batch[i])
		}
	}
	return valid, invalid, nil
}

func isInvalidToken(err error) bool {
	return err != nil && (messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err))
}

func mask(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}

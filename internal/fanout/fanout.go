// Package fanout distributes one logical action (a message, a task, a
// reminder) to every recipient: a delivery row each, a realtime event each and
// a push notification for every recipient with a live device.
//
// Persisting the message and its delivery rows is the durable part. Everything
// after that is best effort: per-recipient failures are recorded in the Report
// and logged, never returned as an error.
package fanout

import (
	"context"

	"collab-backend/internal/realtime"
)

// DeliveryWriter replaces the delivery set of a message.
type DeliveryWriter interface {
	WriteDeliveries(ctx context.Context, messageID, senderID uint, recipients []uint) (int, error)
}

// TokenSet partitions one recipient's push tokens.
type TokenSet struct {
	Valid   []string
	Invalid []string
}

type TokenValidator interface {
	Validate(ctx context.Context, recipientID uint) (TokenSet, error)
}

type Notification struct {
	Title    string
	Body     string
	ImageURL string
}

type Dispatcher interface {
	Dispatch(ctx context.Context, tokens []string, n Notification, data map[string]string) error
}

// TokenPruner hard-deletes device tokens. Deleting a missing token is a no-op.
type TokenPruner interface {
	PruneTokens(ctx context.Context, tokens []string) error
}

// Broadcaster publishes an event on a recipient's channel, skipping the
// connection identified by exceptSocketID.
type Broadcaster interface {
	Publish(ctx context.Context, recipientID uint, event realtime.Event, exceptSocketID string) error
}

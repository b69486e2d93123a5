// Package scheduler re-notifies the delivery set of stored reminders, task
// reminders and daily tasks when they come due.
package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"collab-backend/internal/fanout"
	"collab-backend/internal/message/domain"
	"collab-backend/internal/message/repository"
	msgusecase "collab-backend/internal/message/usecase"
)

// Renotifier runs the notification phase against an existing delivery set.
type Renotifier interface {
	Renotify(ctx context.Context, a fanout.Action, recipients []uint) *fanout.Report
}

type base struct {
	messages   repository.MessageRepository
	deliveries repository.DeliveryRepository
	notifier   Renotifier
	log        zerolog.Logger
}

// claim stores payload, which differs from the loaded one only in the marker
// the scheduler owns, as long as nobody changed the message since it was
// loaded. A false result means the message moved on and the next pass sees the
// fresh payload.
func (b *base) claim(ctx context.Context, msg *domain.Message, payload domain.Payload) (bool, error) {
	loaded := msg.Payload
	if err := msg.SetPayload(payload); err != nil {
		return false, err
	}
	return b.messages.SwapPayload(ctx, msg, loaded, msg.SenderID)
}

// renotify sends a claimed message again to everyone it was delivered to.
// Nothing is written afterwards, so edits made while it runs are kept.
func (b *base) renotify(ctx context.Context, msg *domain.Message, payload domain.Payload, event, title, body string) error {
	recipients, err := b.deliveries.ReceiverIDs(ctx, msg.ID)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	action, err := msgusecase.NewAction(msgusecase.Origin{UserID: msg.SenderID}, msg, recipients, payload, event)
	if err != nil {
		return err
	}
	action.Notification = fanout.Notification{Title: title, Body: body}
	report := b.notifier.Renotify(ctx, action, recipients)
	if report.Partial() {
		b.log.Warn().Uint("message_id", msg.ID).Int("failures", len(report.Failures)).Msg("scheduled notification partially failed")
	}
	return nil
}

// send claims msg and renotifies it, reporting whether it went out.
func (b *base) send(ctx context.Context, msg *domain.Message, payload domain.Payload, event, title, body string) bool {
	claimed, err := b.claim(ctx, msg, payload)
	if err != nil {
		b.log.Error().Err(err).Uint("message_id", msg.ID).Str("event", event).Msg("failed to claim scheduled message")
		return false
	}
	if !claimed {
		b.log.Debug().Uint("message_id", msg.ID).Msg("message changed since it was loaded, skipping")
		return false
	}
	if err := b.renotify(ctx, msg, payload, event, title, body); err != nil {
		b.log.Error().Err(err).Uint("message_id", msg.ID).Str("event", event).Msg("failed to send scheduled message")
		return false
	}
	return true
}

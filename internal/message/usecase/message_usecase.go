package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"collab-backend/internal/fanout"
	"collab-backend/internal/message/domain"
	"collab-backend/internal/message/dto"
	"collab-backend/internal/message/repository"
	"collab-backend/pkg/apperror"
)

const (
	EventCreated  = "message.created"
	EventUpdated  = "message.updated"
	EventReminder = "message.reminder"
	EventDaily    = "message.daily"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Types created through their own endpoints are rejected by Send and Update.
var sendable = map[domain.MessageType]struct{}{
	domain.TypeText:       {},
	domain.TypeAttachment: {},
	domain.TypeMeeting:    {},
	domain.TypeSimpleTask: {},
}

// messageUsecase implements MessageUsecase interface
type messageUsecase struct {
	messages   repository.MessageRepository
	deliveries repository.DeliveryRepository
	users      UserDirectory
	fanout     Fanout
	log        zerolog.Logger
}

// NewMessageUsecase creates a new instance of messageUsecase
func NewMessageUsecase(messages repository.MessageRepository, deliveries repository.DeliveryRepository, users UserDirectory, fan Fanout, log zerolog.Logger) MessageUsecase {
	return &messageUsecase{
		messages:   messages,
		deliveries: deliveries,
		users:      users,
		fanout:     fan,
		log:        log,
	}
}

func (u *messageUsecase) Send(ctx context.Context, origin Origin, req *dto.SendMessageRequest) (*Result, error) {
	t, err := domain.ParseMessageType(req.Type)
	if err != nil {
		return nil, apperror.ValidationField("type", err.Error())
	}
	if _, ok := sendable[t]; !ok {
		return nil, apperror.ValidationField("type", fmt.Sprintf("%s messages have their own endpoint", t))
	}

	payload := domain.NewPayload(t)
	if err := json.Unmarshal(req.Payload, payload); err != nil {
		return nil, apperror.ValidationField("payload", fmt.Sprintf("payload is not a valid %s", t))
	}
	return u.Create(ctx, origin, t, req.Recipients, payload)
}

func (u *messageUsecase) Create(ctx context.Context, origin Origin, t domain.MessageType, recipients fanout.RecipientInput, payload domain.Payload) (*Result, error) {
	if err := payload.Validate(); err != nil {
		return nil, apperror.ValidationField("payload", err.Error())
	}
	resolved, err := u.resolve(recipients, origin.UserID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		Type:      t,
		SenderID:  origin.UserID,
		CreatedBy: origin.UserID,
		UpdatedBy: origin.UserID,
	}
	if err := msg.SetPayload(payload); err != nil {
		return nil, apperror.Internal("encode payload", err)
	}
	if err := u.messages.Create(ctx, msg); err != nil {
		return nil, apperror.Internal("create message", err)
	}

	var report *fanout.Report
	action, err := NewAction(origin, msg, resolved, payload, EventCreated)
	if err == nil {
		report, err = u.fanout.Run(ctx, action)
	}
	if err != nil {
		// a message nobody can see is dropped again
		if derr := u.messages.SoftDelete(context.WithoutCancel(ctx), msg.ID, origin.UserID); derr != nil {
			u.log.Error().Err(derr).Uint("message_id", msg.ID).Msg("failed to drop message without deliveries")
		}
		return nil, apperror.Internal("write deliveries", err)
	}
	return &Result{Message: msg, Recipients: report.Recipients, Report: report}, nil
}

// Update merges the request payload into the stored one.
func (u *messageUsecase) Update(ctx context.Context, origin Origin, id uint, req *dto.UpdateMessageRequest) (*Result, error) {
	return u.Modify(ctx, origin, id, "", req.Recipients, func(p domain.Payload) error {
		switch p.(type) {
		case *domain.TaskPayload, *domain.ReminderPayload, *domain.DailyTaskPayload:
			return apperror.Validation("this message has its own endpoint")
		}
		if err := json.Unmarshal(req.Payload, p); err != nil {
			return apperror.ValidationField("payload", "payload does not match the message type")
		}
		return nil
	})
}

func (u *messageUsecase) Modify(ctx context.Context, origin Origin, id uint, t domain.MessageType, recipients fanout.RecipientInput, mutate func(domain.Payload) error) (*Result, error) {
	msg, err := u.owned(ctx, origin.UserID, id)
	if err != nil {
		return nil, err
	}
	return u.modify(ctx, origin, msg, t, recipients, mutate)
}

func (u *messageUsecase) Touch(ctx context.Context, origin Origin, id uint, t domain.MessageType, mutate func(domain.Payload) error) (*Result, error) {
	res, err := u.Get(ctx, origin.UserID, id)
	if err != nil {
		return nil, err
	}
	return u.modify(ctx, origin, res.Message, t, fanout.RecipientsOf(res.Recipients), mutate)
}

func (u *messageUsecase) modify(ctx context.Context, origin Origin, msg *domain.Message, t domain.MessageType, recipients fanout.RecipientInput, mutate func(domain.Payload) error) (*Result, error) {
	if t != "" && msg.Type != t {
		return nil, apperror.NotFound(fmt.Sprintf("%s not found", t))
	}

	payload := domain.NewPayload(msg.Type)
	if err := msg.DecodePayload(payload); err != nil {
		return nil, apperror.Internal("decode payload", err)
	}
	if err := mutate(payload); err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, apperror.ValidationField("payload", err.Error())
	}

	// The new recipient set is fully resolved before any delivery row changes.
	if recipients == nil {
		current, err := u.deliveries.ReceiverIDs(ctx, msg.ID)
		if err != nil {
			return nil, apperror.Internal("load recipients", err)
		}
		recipients = fanout.RecipientsOf(current)
	}
	resolved, err := u.resolve(recipients, msg.SenderID)
	if err != nil {
		return nil, err
	}

	previous := msg.Payload
	if err := msg.SetPayload(payload); err != nil {
		return nil, apperror.Internal("encode payload", err)
	}
	action, err := NewAction(origin, msg, resolved, payload, EventUpdated)
	if err != nil {
		return nil, apperror.Internal("build fan-out", err)
	}
	if err := u.messages.UpdatePayload(ctx, msg, origin.UserID); err != nil {
		return nil, apperror.Internal("update message", err)
	}

	report, err := u.fanout.Run(ctx, action)
	if err != nil {
		u.restorePayload(context.WithoutCancel(ctx), msg, previous)
		return nil, apperror.Internal("write deliveries", err)
	}
	return &Result{Message: msg, Recipients: report.Recipients, Report: report}, nil
}

// restorePayload puts back the payload that matched the old delivery set,
// unless someone changed the message in the meantime.
func (u *messageUsecase) restorePayload(ctx context.Context, msg *domain.Message, previous datatypes.JSON) {
	written := msg.Payload
	msg.Payload = previous
	ok, err := u.messages.SwapPayload(ctx, msg, written, msg.UpdatedBy)
	switch {
	case err != nil:
		u.log.Error().Err(err).Uint("message_id", msg.ID).Msg("failed to restore payload after delivery failure")
	case !ok:
		u.log.Warn().Uint("message_id", msg.ID).Msg("message changed before its payload could be restored")
	}
}

func (u *messageUsecase) Delete(ctx context.Context, origin Origin, id uint) error {
	msg, err := u.owned(ctx, origin.UserID, id)
	if err != nil {
		return err
	}
	if err := u.messages.SoftDelete(ctx, msg.ID, origin.UserID); err != nil {
		return apperror.Internal("delete message", err)
	}
	return nil
}

func (u *messageUsecase) Get(ctx context.Context, userID, id uint) (*Result, error) {
	msg, err := u.messages.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("find message", err)
	}
	if msg == nil {
		return nil, apperror.NotFound("message not found")
	}
	if msg.SenderID != userID {
		ok, err := u.deliveries.IsParticipant(ctx, msg.ID, userID)
		if err != nil {
			return nil, apperror.Internal("check participant", err)
		}
		if !ok {
			return nil, apperror.Forbidden("you are not a participant of this message")
		}
	}

	recipients, err := u.deliveries.ReceiverIDs(ctx, msg.ID)
	if err != nil {
		return nil, apperror.Internal("load recipients", err)
	}
	return &Result{Message: msg, Recipients: recipients}, nil
}

func (u *messageUsecase) List(ctx context.Context, userID uint, filter repository.ListFilter) ([]*domain.Message, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	msgs, total, err := u.messages.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, apperror.Internal("list messages", err)
	}
	return msgs, total, nil
}

func (u *messageUsecase) owned(ctx context.Context, userID, id uint) (*domain.Message, error) {
	msg, err := u.messages.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("find message", err)
	}
	if msg == nil {
		return nil, apperror.NotFound("message not found")
	}
	if msg.SenderID != userID {
		return nil, apperror.Forbidden("only the sender can change this message")
	}
	return msg, nil
}

// resolve normalizes the recipient input and checks every user exists.
func (u *messageUsecase) resolve(raw fanout.RecipientInput, senderID uint) ([]uint, error) {
	ids, err := fanout.Resolve(raw, senderID)
	if err != nil {
		return nil, apperror.ValidationField("recipients", err.Error())
	}
	found, err := u.users.ExistingIDs(ids)
	if err != nil {
		return nil, apperror.Internal("look up recipients", err)
	}
	if len(found) == len(ids) {
		return ids, nil
	}
	known := make(map[uint]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return nil, apperror.ValidationField("recipients", fmt.Sprintf("user %d does not exist", id))
		}
	}
	return ids, nil
}

// NewAction builds the fan-out request for a persisted message. The event
// fields are the stored payload, so a payload that is not a JSON object is an
// error.
func NewAction(origin Origin, msg *domain.Message, recipients []uint, payload domain.Payload, event string) (fanout.Action, error) {
	title, body := payload.Summary()
	var fields map[string]any
	if err := json.Unmarshal(msg.Payload, &fields); err != nil {
		return fanout.Action{}, fmt.Errorf("decode payload of message %d: %w", msg.ID, err)
	}
	if fields == nil {
		return fanout.Action{}, fmt.Errorf("message %d has an empty payload", msg.ID)
	}
	return fanout.Action{
		Message:        msg,
		ActingUserID:   msg.SenderID,
		Recipients:     fanout.RecipientsOf(recipients),
		OriginSocketID: origin.SocketID,
		OriginUserID:   origin.UserID,
		Event:          event,
		Notification:   fanout.Notification{Title: title, Body: body},
		Fields:         fields,
		Data: map[string]string{
			"event":        event,
			"click_action": fmt.Sprintf("/%s/%d", msg.Type.Screen(), msg.ID),
		},
	}, nil
}

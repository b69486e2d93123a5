package usecase

import (
	"context"

	"collab-backend/internal/fanout"
	"collab-backend/internal/message/domain"
	"collab-backend/internal/message/dto"
	"collab-backend/internal/message/repository"
)

// Origin identifies who performs an action and from which realtime
// connection.
type Origin struct {
	UserID   uint
	SocketID string
}

// Fanout persists deliveries and notifies recipients.
type Fanout interface {
	Run(ctx context.Context, a fanout.Action) (*fanout.Report, error)
}

// UserDirectory tells which user ids exist.
type UserDirectory interface {
	ExistingIDs(ids []uint) ([]uint, error)
}

// Result is a persisted message together with its fan-out outcome.
type Result struct {
	Message    *domain.Message
	Recipients []uint
	Report     *fanout.Report
}

// Response renders the result for the API.
func (r *Result) Response() *dto.MessageResponse {
	return &dto.MessageResponse{
		Message:    r.Message,
		Recipients: r.Recipients,
		Delivery:   dto.NewDeliveryResponse(r.Report),
	}
}

// MessageUsecase defines the interface for message business logic
type MessageUsecase interface {
	// Send creates a chat-level message (text, attachment, meeting, simple task)
	Send(ctx context.Context, origin Origin, req *dto.SendMessageRequest) (*Result, error)

	// Update replaces the payload and, when given, the recipients of a message
	Update(ctx context.Context, origin Origin, id uint, req *dto.UpdateMessageRequest) (*Result, error)

	Delete(ctx context.Context, origin Origin, id uint) error

	// Get returns a message the user sent or receives
	Get(ctx context.Context, userID, id uint) (*Result, error)

	List(ctx context.Context, userID uint, filter repository.ListFilter) ([]*domain.Message, int64, error)

	// Create persists a message of any type and fans it out
	Create(ctx context.Context, origin Origin, t domain.MessageType, recipients fanout.RecipientInput, payload domain.Payload) (*Result, error)

	// Modify loads a message of type t owned by the caller, applies mutate to
	// its payload and fans it out again. Nil recipients keep the current set.
	Modify(ctx context.Context, origin Origin, id uint, t domain.MessageType, recipients fanout.RecipientInput, mutate func(domain.Payload) error) (*Result, error)

	// Touch is Modify for any participant; the recipient set is kept
	Touch(ctx context.Context, origin Origin, id uint, t domain.MessageType, mutate func(domain.Payload) error) (*Result, error)
}

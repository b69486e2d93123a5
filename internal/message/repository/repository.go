package repository

import (
	"context"

	"gorm.io/datatypes"

	"collab-backend/internal/message/domain"
)

// ListFilter narrows ListForUser. PayloadEquals matches top level payload keys.
type ListFilter struct {
	Types         []domain.MessageType
	PayloadEquals map[string]string
	Limit         int
	Offset        int
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	// Create persists a new message
	Create(ctx context.Context, msg *domain.Message) error

	// FindByID returns nil when the message does not exist or was deleted
	FindByID(ctx context.Context, id uint) (*domain.Message, error)

	// UpdatePayload stores a new payload; the type never changes
	UpdatePayload(ctx context.Context, msg *domain.Message, updatedBy uint) error

	// SwapPayload stores msg.Payload only while the stored payload still equals
	// expected, and reports whether it did
	SwapPayload(ctx context.Context, msg *domain.Message, expected datatypes.JSON, updatedBy uint) (bool, error)

	// SoftDelete marks the message and its deliveries deleted
	SoftDelete(ctx context.Context, id, deletedBy uint) error

	// ListForUser returns messages delivered to userID, newest first
	ListForUser(ctx context.Context, userID uint, filter ListFilter) ([]*domain.Message, int64, error)

	// FindByType returns every live message of the given type
	FindByType(ctx context.Context, t domain.MessageType) ([]*domain.Message, error)
}

// DeliveryRepository manages the sender/receiver rows of a message
type DeliveryRepository interface {
	// WriteDeliveries replaces the delivery set of a message in one transaction
	WriteDeliveries(ctx context.Context, messageID, senderID uint, recipients []uint) (int, error)

	// ReceiverIDs returns the receivers of a message in insertion order
	ReceiverIDs(ctx context.Context, messageID uint) ([]uint, error)

	// IsParticipant reports whether userID sent or receives the message
	IsParticipant(ctx context.Context, messageID, userID uint) (bool, error)
}

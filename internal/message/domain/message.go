package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MessageType tags what a message carries. It is fixed at creation.
type MessageType string

const (
	TypeText       MessageType = "text"
	TypeAttachment MessageType = "attachment"
	TypeTask       MessageType = "task"
	TypeReminder   MessageType = "reminder"
	TypeMeeting    MessageType = "meeting"
	TypeDailyTask  MessageType = "daily_task"
	TypeSimpleTask MessageType = "simple_task"
)

var messageTypes = map[MessageType]struct{}{
	TypeText: {}, TypeAttachment: {}, TypeTask: {}, TypeReminder: {},
	TypeMeeting: {}, TypeDailyTask: {}, TypeSimpleTask: {},
}

// ParseMessageType accepts only the known type tags.
func ParseMessageType(s string) (MessageType, error) {
	t := MessageType(s)
	if _, ok := messageTypes[t]; !ok {
		return "", fmt.Errorf("unknown message type %q", s)
	}
	return t, nil
}

// Screen is the client screen a realtime event should open.
func (t MessageType) Screen() string {
	switch t {
	case TypeTask, TypeSimpleTask, TypeDailyTask:
		return "tasks"
	case TypeReminder:
		return "reminders"
	case TypeMeeting:
		return "meetings"
	default:
		return "chat"
	}
}

// Message is one logical action (a chat message, a task, a reminder...)
// delivered to a set of users through Delivery rows.
type Message struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Type      MessageType    `json:"type" gorm:"size:32;index;not null"`
	SenderID  uint           `json:"sender_id" gorm:"index;not null"`
	Payload   datatypes.JSON `json:"payload" gorm:"not null"`
	CreatedBy uint           `json:"created_by"`
	UpdatedBy uint           `json:"updated_by"`
	DeletedBy *uint          `json:"deleted_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Deliveries []Delivery `json:"-" gorm:"foreignKey:MessageID"`
}

// DecodePayload unmarshals the stored payload into dst.
func (m *Message) DecodePayload(dst any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("message %d has no payload", m.ID)
	}
	return json.Unmarshal(m.Payload, dst)
}

// SetPayload replaces the stored payload.
func (m *Message) SetPayload(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.Payload = datatypes.JSON(raw)
	return nil
}

// Delivery ties a message to one receiver.
type Delivery struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	MessageID  uint           `json:"message_id" gorm:"not null;uniqueIndex:idx_delivery_message_receiver"`
	SenderID   uint           `json:"sender_id" gorm:"index;not null"`
	ReceiverID uint           `json:"receiver_id" gorm:"not null;uniqueIndex:idx_delivery_message_receiver;index"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for GORM
func (Delivery) TableName() string {
	return "message_sender_receivers"
}

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Sink delivers an event to the connections this instance holds for a user.
type Sink interface {
	SendToUserExcept(userID, exceptSocketID, eventType string, payload interface{})
}

// Local publishes straight to this instance's connections. It is enough for a
// single instance deployment.
type Local struct {
	sink Sink
}

func NewLocal(sink Sink) *Local {
	return &Local{sink: sink}
}

func (l *Local) Publish(ctx context.Context, recipientID uint, event Event, exceptSocketID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.sink.SendToUserExcept(userKey(recipientID), exceptSocketID, event.Name, event)
	return nil
}

func userKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func encode(recipientID uint, event Event, exceptSocketID string) ([]byte, error) {
	return json.Marshal(envelope{UserID: recipientID, Except: exceptSocketID, Name: event.Name, Event: event})
}

// deliver hands a relayed envelope to the local sink.
func deliver(sink Sink, data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode relayed event: %w", err)
	}
	if env.UserID == 0 {
		return fmt.Errorf("relayed event has no user")
	}
	env.Event.Name = env.Name
	sink.SendToUserExcept(userKey(env.UserID), env.Except, env.Name, env.Event)
	return nil
}

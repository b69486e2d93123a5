package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Event is what a recipient's channel receives. Fields holds the
// type-specific values and is flattened next to the fixed keys on the wire.
type Event struct {
	Name     string         `json:"-"`
	ID       uint           `json:"id"`
	Sender   uint           `json:"sender"`
	Receiver uint           `json:"receiver"`
	Type     string         `json:"type"`
	Screen   string         `json:"screen"`
	Fields   map[string]any `json:"-"`
}

var reserved = map[string]struct{}{"id": {}, "sender": {}, "receiver": {}, "type": {}, "screen": {}}

func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+5)
	for k, v := range e.Fields {
		if _, ok := reserved[k]; ok {
			continue
		}
		out[k] = v
	}
	out["id"] = e.ID
	out["sender"] = e.Sender
	out["receiver"] = e.Receiver
	out["type"] = e.Type
	out["screen"] = e.Screen
	return json.Marshal(out)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	if e.ID, err = uintField(raw, "id"); err != nil {
		return err
	}
	if e.Sender, err = uintField(raw, "sender"); err != nil {
		return err
	}
	if e.Receiver, err = uintField(raw, "receiver"); err != nil {
		return err
	}
	e.Type, _ = raw["type"].(string)
	e.Screen, _ = raw["screen"].(string)

	e.Fields = nil
	for k, v := range raw {
		if _, ok := reserved[k]; ok {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string]any)
		}
		e.Fields[k] = v
	}
	return nil
}

func uintField(raw map[string]any, key string) (uint, error) {
	switch v := raw[key].(type) {
	case nil:
		return 0, nil
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("event field %s is negative", key)
		}
		return uint(v), nil
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("event field %s: %w", key, err)
		}
		return uint(n), nil
	default:
		return 0, fmt.Errorf("event field %s has type %T", key, v)
	}
}

// Channel is the per-recipient channel name.
func Channel(userID uint) string {
	return "user." + strconv.FormatUint(uint64(userID), 10)
}

// envelope is what cross-instance relays carry.
type envelope struct {
	UserID uint   `json:"user_id"`
	Except string `json:"except,omitempty"`
	Name   string `json:"name"`
	Event  Event  `json:"event"`
}

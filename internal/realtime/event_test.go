package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_FlattensFields(t *testing.T) {
	ev := Event{
		Name:     "message.created",
		ID:       12,
		Sender:   1,
		Receiver: 3,
		Type:     "task",
		Screen:   "tasks",
		Fields:   map[string]any{"title": "Review PR", "id": 999},
	}

	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, float64(12), wire["id"], "fixed keys win over fields")
	assert.Equal(t, "Review PR", wire["title"])
	assert.Equal(t, "tasks", wire["screen"])
	assert.NotContains(t, wire, "name")

	var back Event
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, uint(12), back.ID)
	assert.Equal(t, uint(3), back.Receiver)
	assert.Equal(t, map[string]any{"title": "Review PR"}, back.Fields)
}

func TestEvent_UnmarshalRejectsBadIDs(t *testing.T) {
	var ev Event
	assert.Error(t, json.Unmarshal([]byte(`{"id":-1}`), &ev))
	assert.Error(t, json.Unmarshal([]byte(`{"id":true}`), &ev))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"7","sender":2}`), &ev))
	assert.Equal(t, uint(7), ev.ID)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "user.42", Channel(42))
}

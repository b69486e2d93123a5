package sse

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(cl *Client) []Message {
	var out []Message
	for {
		select {
		case m := <-cl.Events:
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestSendToUser_AllConnections(t *testing.T) {
	m := NewManager(zerolog.Nop())
	a, closeA := m.Subscribe("1")
	defer closeA()
	b, closeB := m.Subscribe("1")
	defer closeB()
	other, closeOther := m.Subscribe("2")
	defer closeOther()

	m.SendToUser("1", "task", map[string]any{"id": 7})

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(other))
}

func TestSendToUserExcept_SkipsOrigin(t *testing.T) {
	m := NewManager(zerolog.Nop())
	origin, closeOrigin := m.Subscribe("1")
	defer closeOrigin()
	phone, closePhone := m.Subscribe("1")
	defer closePhone()

	m.SendToUserExcept("1", origin.ID, "message", "hi")

	assert.Empty(t, drain(origin))
	got := drain(phone)
	require.Len(t, got, 1)
	assert.Equal(t, "message", got[0].Event)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	m := NewManager(zerolog.Nop())
	_, closeA := m.Subscribe("5")
	assert.Equal(t, 1, m.Connections("5"))

	closeA()
	closeA()
	assert.Equal(t, 0, m.Connections("5"))

	// no subscribers: must not panic
	m.SendToUser("5", "task", nil)
}

func TestSendToUser_FullBufferDrops(t *testing.T) {
	m := NewManager(zerolog.Nop())
	cl, closeCl := m.Subscribe("3")
	defer closeCl()

	for i := 0; i < clientBuffer+5; i++ {
		m.SendToUser("3", "tick", i)
	}
	assert.Len(t, drain(cl), clientBuffer)
}

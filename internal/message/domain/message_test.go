package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageType(t *testing.T) {
	for _, s := range []string{"text", "attachment", "task", "reminder", "meeting", "daily_task", "simple_task"} {
		mt, err := ParseMessageType(s)
		require.NoError(t, err)
		assert.Equal(t, MessageType(s), mt)
		assert.NotNil(t, NewPayload(mt))
	}

	_, err := ParseMessageType("Task")
	assert.Error(t, err)
	_, err = ParseMessageType("")
	assert.Error(t, err)
}

func TestPayloadRoundTripOnMessage(t *testing.T) {
	due := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	m := &Message{ID: 7, Type: TypeTask}
	require.NoError(t, m.SetPayload(TaskPayload{Title: "Ship", DueDate: &due, Priority: PriorityHigh, Status: TaskStatusPending}))

	var got TaskPayload
	require.NoError(t, m.DecodePayload(&got))
	assert.Equal(t, "Ship", got.Title)
	assert.True(t, due.Equal(*got.DueDate))

	empty := &Message{ID: 8}
	assert.Error(t, empty.DecodePayload(&got))
}

func TestPayloadValidation(t *testing.T) {
	assert.Error(t, TextPayload{Body: "  "}.Validate())
	assert.NoError(t, TextPayload{Body: "hi"}.Validate())

	assert.Error(t, TaskPayload{Title: "x", Status: "done"}.Validate())
	assert.NoError(t, TaskPayload{Title: "x", Status: TaskStatusPending}.Validate())

	assert.Error(t, ReminderPayload{Title: "x"}.Validate())

	start := time.Now()
	assert.Error(t, MeetingPayload{Title: "sync", StartAt: start, EndAt: start.Add(-time.Hour)}.Validate())

	assert.Error(t, DailyTaskPayload{Title: "standup", Time: "25:00"}.Validate())
	assert.NoError(t, DailyTaskPayload{Title: "standup", Time: "09:30"}.Validate())

	assert.Error(t, AttachmentPayload{URL: "https://cdn/x.pdf"}.Validate())
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, ParsePriority("HIGH"))
	assert.Equal(t, PriorityLow, ParsePriority("low"))
	assert.Equal(t, PriorityMedium, ParsePriority("urgent"))
}

func TestScreen(t *testing.T) {
	assert.Equal(t, "tasks", TypeTask.Screen())
	assert.Equal(t, "reminders", TypeReminder.Screen())
	assert.Equal(t, "chat", TypeText.Screen())
}

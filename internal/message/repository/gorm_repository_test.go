package repository

import (
	"context"
	"sort"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"collab-backend/internal/message/domain"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	return db
}

func newMessage(t *testing.T, repo MessageRepository, typ domain.MessageType, sender uint, payload any) *domain.Message {
	t.Helper()
	msg := &domain.Message{Type: typ, SenderID: sender}
	require.NoError(t, msg.SetPayload(payload))
	require.NoError(t, repo.Create(context.Background(), msg))
	return msg
}

func sortedIDs(ids []uint) []uint {
	out := append([]uint(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestWriteDeliveries_ReplacesWholeSet(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	messages := NewGormMessageRepository(db)
	deliveries := NewGormDeliveryRepository(db)
	msg := newMessage(t, messages, domain.TypeTask, 1, domain.TaskPayload{Title: "a", Status: domain.TaskStatusPending})

	n, err := deliveries.WriteDeliveries(ctx, msg.ID, 1, []uint{2, 3, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// overlapping second set
	n, err = deliveries.WriteDeliveries(ctx, msg.ID, 1, []uint{3, 4, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ids, err := deliveries.ReceiverIDs(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 4, 1}, ids)

	var total int64
	require.NoError(t, db.Unscoped().Model(&domain.Delivery{}).Where("message_id = ?", msg.ID).Count(&total).Error)
	assert.Equal(t, int64(3), total, "no stale rows, soft deleted or not")
}

func TestWriteDeliveries_OtherMessagesUntouched(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	messages := NewGormMessageRepository(db)
	deliveries := NewGormDeliveryRepository(db)
	a := newMessage(t, messages, domain.TypeText, 1, domain.TextPayload{Body: "a"})
	b := newMessage(t, messages, domain.TypeText, 1, domain.TextPayload{Body: "b"})

	_, err := deliveries.WriteDeliveries(ctx, a.ID, 1, []uint{2, 1})
	require.NoError(t, err)
	_, err = deliveries.WriteDeliveries(ctx, b.ID, 1, []uint{5, 1})
	require.NoError(t, err)
	_, err = deliveries.WriteDeliveries(ctx, a.ID, 1, []uint{1})
	require.NoError(t, err)

	ids, err := deliveries.ReceiverIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{5, 1}, ids)
}

func TestIsParticipant(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	messages := NewGormMessageRepository(db)
	deliveries := NewGormDeliveryRepository(db)
	msg := newMessage(t, messages, domain.TypeText, 1, domain.TextPayload{Body: "hi"})
	_, err := deliveries.WriteDeliveries(ctx, msg.ID, 1, []uint{2, 1})
	require.NoError(t, err)

	ok, err := deliveries.IsParticipant(ctx, msg.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = deliveries.IsParticipant(ctx, msg.ID, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMessageRepository_CRUD(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	messages := NewGormMessageRepository(db)
	deliveries := NewGormDeliveryRepository(db)

	msg := newMessage(t, messages, domain.TypeSimpleTask, 1, domain.SimpleTaskPayload{Title: "buy milk"})
	assert.NotZero(t, msg.ID)
	assert.Equal(t, uint(1), msg.CreatedBy)

	found, err := messages.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, domain.TypeSimpleTask, found.Type)

	require.NoError(t, found.SetPayload(domain.SimpleTaskPayload{Title: "buy milk", Done: true}))
	require.NoError(t, messages.UpdatePayload(ctx, found, 2))
	reloaded, err := messages.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	var p domain.SimpleTaskPayload
	require.NoError(t, reloaded.DecodePayload(&p))
	assert.True(t, p.Done)
	assert.Equal(t, uint(2), reloaded.UpdatedBy)

	_, err = deliveries.WriteDeliveries(ctx, msg.ID, 1, []uint{2, 1})
	require.NoError(t, err)
	require.NoError(t, messages.SoftDelete(ctx, msg.ID, 1))

	gone, err := messages.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	var deleted domain.Message
	require.NoError(t, db.Unscoped().First(&deleted, msg.ID).Error)
	require.NotNil(t, deleted.DeletedBy)
	assert.Equal(t, uint(1), *deleted.DeletedBy)
	assert.True(t, deleted.DeletedAt.Valid)

	ids, err := deliveries.ReceiverIDs(ctx, msg.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	missing, err := messages.FindByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListForUser(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	messages := NewGormMessageRepository(db)
	deliveries := NewGormDeliveryRepository(db)

	text := newMessage(t, messages, domain.TypeText, 1, domain.TextPayload{Body: "hello"})
	task := newMessage(t, messages, domain.TypeTask, 1, domain.TaskPayload{Title: "t", Status: domain.TaskStatusPending})
	other := newMessage(t, messages, domain.TypeText, 3, domain.TextPayload{Body: "not for 2"})
	_, _ = deliveries.WriteDeliveries(ctx, text.ID, 1, []uint{2, 1})
	_, _ = deliveries.WriteDeliveries(ctx, task.ID, 1, []uint{2, 1})
	_, _ = deliveries.WriteDeliveries(ctx, other.ID, 3, []uint{4, 3})

	list, total, err := messages.ListForUser(ctx, 2, ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, task.ID, list[0].ID, "newest first")

	list, total, err = messages.ListForUser(ctx, 2, ListFilter{Types: []domain.MessageType{domain.TypeTask}, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, task.ID, list[0].ID)

	done := newMessage(t, messages, domain.TypeTask, 1, domain.TaskPayload{Title: "d", Status: domain.TaskStatusCompleted})
	_, _ = deliveries.WriteDeliveries(ctx, done.ID, 1, []uint{2, 1})
	list, total, err = messages.ListForUser(ctx, 2, ListFilter{
		Types:         []domain.MessageType{domain.TypeTask},
		PayloadEquals: map[string]string{"status": string(domain.TaskStatusCompleted)},
		Limit:         10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, done.ID, list[0].ID)

	require.NoError(t, messages.SoftDelete(ctx, text.ID, 1))
	_, total, err = messages.ListForUser(ctx, 2, ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestFindByType(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	messages := NewGormMessageRepository(db)

	daily := newMessage(t, messages, domain.TypeDailyTask, 1, domain.DailyTaskPayload{Title: "standup", Time: "09:00", Active: true})
	newMessage(t, messages, domain.TypeText, 1, domain.TextPayload{Body: "x"})

	found, err := messages.FindByType(ctx, domain.TypeDailyTask)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, daily.ID, found[0].ID)
}

func TestMessageRepository_SwapPayload(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	messages := NewGormMessageRepository(db)

	msg := newMessage(t, messages, domain.TypeSimpleTask, 1, domain.SimpleTaskPayload{Title: "buy milk"})
	loaded, err := messages.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	stale := loaded.Payload

	require.NoError(t, loaded.SetPayload(domain.SimpleTaskPayload{Title: "buy milk", Done: true}))
	ok, err := messages.SwapPayload(ctx, loaded, stale, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(2), loaded.UpdatedBy)

	// a second writer still holding the old payload loses
	require.NoError(t, msg.SetPayload(domain.SimpleTaskPayload{Title: "buy bread"}))
	ok, err = messages.SwapPayload(ctx, msg, stale, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := messages.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	var p domain.SimpleTaskPayload
	require.NoError(t, reloaded.DecodePayload(&p))
	assert.Equal(t, "buy milk", p.Title)
	assert.True(t, p.Done)
	assert.Equal(t, uint(2), reloaded.UpdatedBy)
}

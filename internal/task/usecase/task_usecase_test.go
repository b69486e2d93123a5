package usecase

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"collab-backend/internal/fanout"
	"collab-backend/internal/message/domain"
	"collab-backend/internal/message/repository"
	msgusecase "collab-backend/internal/message/usecase"
	"collab-backend/internal/realtime"
	"collab-backend/internal/task/dto"
	"collab-backend/pkg/apperror"
	"collab-backend/pkg/logger"
)

type everyone struct{}

func (everyone) ExistingIDs(ids []uint) ([]uint, error) { return ids, nil }

type quiet struct{}

func (quiet) Publish(context.Context, uint, realtime.Event, string) error { return nil }
func (quiet) Validate(context.Context, uint) (fanout.TokenSet, error)     { return fanout.TokenSet{}, nil }
func (quiet) PruneTokens(context.Context, []string) error                 { return nil }
func (quiet) Dispatch(context.Context, []string, fanout.Notification, map[string]string) error {
	return nil
}

func newTaskUsecase(t *testing.T) (TaskUsecase, repository.DeliveryRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrate(db))

	messages := repository.NewGormMessageRepository(db)
	deliveries := repository.NewGormDeliveryRepository(db)
	orch := fanout.NewOrchestrator(deliveries, quiet{}, quiet{}, quiet{}, quiet{})
	return NewTaskUsecase(msgusecase.NewMessageUsecase(messages, deliveries, everyone{}, orch, logger.Nop())), deliveries
}

func ptr(s string) *string { return &s }

func decodeTask(t *testing.T, msg *domain.Message) domain.TaskPayload {
	t.Helper()
	var p domain.TaskPayload
	require.NoError(t, msg.DecodePayload(&p))
	return p
}

func TestCreateTask(t *testing.T) {
	uc, deliveries := newTaskUsecase(t)
	ctx := context.Background()

	res, err := uc.CreateTask(ctx, msgusecase.Origin{UserID: 1}, &dto.CreateTaskRequest{
		Recipients: fanout.ParseRecipients("2,3,4"),
		Title:      "Review PR",
		DueDate:    ptr("2026-10-20T17:00:00Z"),
		Priority:   "HIGH",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeTask, res.Message.Type)

	ids, err := deliveries.ReceiverIDs(ctx, res.Message.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3, 4, 1}, ids)

	task := decodeTask(t, res.Message)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, 20, task.DueDate.Day())

	_, err = uc.CreateTask(ctx, msgusecase.Origin{UserID: 1}, &dto.CreateTaskRequest{Title: "x", DueDate: ptr("tomorrow")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestUpdateTask_ResetsReminderAndReplacesRecipients(t *testing.T) {
	uc, deliveries := newTaskUsecase(t)
	ctx := context.Background()
	owner := msgusecase.Origin{UserID: 1}
	created, err := uc.CreateTask(ctx, owner, &dto.CreateTaskRequest{Recipients: fanout.ParseRecipients("2,3"), Title: "v1"})
	require.NoError(t, err)

	updated, err := uc.UpdateTask(ctx, owner, created.Message.ID, &dto.UpdateTaskRequest{
		Recipients: fanout.RecipientInput{"7"},
		Title:      ptr("v2"),
		ReminderAt: ptr("2026-10-16T08:00:00Z"),
	})
	require.NoError(t, err)
	task := decodeTask(t, updated.Message)
	assert.Equal(t, "v2", task.Title)
	require.NotNil(t, task.ReminderAt)
	assert.False(t, task.ReminderSent)

	ids, err := deliveries.ReceiverIDs(ctx, created.Message.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{7, 1}, ids)

	_, err = uc.UpdateTask(ctx, owner, created.Message.ID, &dto.UpdateTaskRequest{Status: ptr("archived")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = uc.UpdateTask(ctx, msgusecase.Origin{UserID: 7}, created.Message.ID, &dto.UpdateTaskRequest{Title: ptr("stolen")})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestUpdateTaskStatus_ByAssignee(t *testing.T) {
	uc, _ := newTaskUsecase(t)
	ctx := context.Background()
	created, err := uc.CreateTask(ctx, msgusecase.Origin{UserID: 1}, &dto.CreateTaskRequest{Recipients: fanout.RecipientInput{"2"}, Title: "ship"})
	require.NoError(t, err)

	res, err := uc.UpdateTaskStatus(ctx, msgusecase.Origin{UserID: 2}, created.Message.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, decodeTask(t, res.Message).Status)

	_, err = uc.UpdateTaskStatus(ctx, msgusecase.Origin{UserID: 3}, created.Message.ID, "completed")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = uc.UpdateTaskStatus(ctx, msgusecase.Origin{UserID: 2}, created.Message.ID, "done")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	done, total, err := uc.ListTasks(ctx, 2, "completed", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, created.Message.ID, done[0].ID)

	_, total, err = uc.ListTasks(ctx, 2, "pending", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestGetAndDeleteTask(t *testing.T) {
	uc, _ := newTaskUsecase(t)
	ctx := context.Background()
	owner := msgusecase.Origin{UserID: 1}
	created, err := uc.CreateTask(ctx, owner, &dto.CreateTaskRequest{Recipients: fanout.RecipientInput{"2"}, Title: "t"})
	require.NoError(t, err)
	reminder, err := uc.CreateReminder(ctx, owner, &dto.CreateReminderRequest{Title: "standup", RemindAt: "2026-10-16T09:00:00Z"})
	require.NoError(t, err)

	_, err = uc.GetTask(ctx, 1, reminder.Message.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound), "a reminder is not a task")

	err = uc.DeleteTask(ctx, msgusecase.Origin{UserID: 2}, created.Message.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	require.NoError(t, uc.DeleteTask(ctx, owner, created.Message.ID))
	_, err = uc.GetTask(ctx, 1, created.Message.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCreateReminderAndDailyTask(t *testing.T) {
	uc, _ := newTaskUsecase(t)
	ctx := context.Background()
	owner := msgusecase.Origin{UserID: 1}

	_, err := uc.CreateReminder(ctx, owner, &dto.CreateReminderRequest{Title: "standup", RemindAt: "soon"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	res, err := uc.CreateReminder(ctx, owner, &dto.CreateReminderRequest{Recipients: fanout.RecipientInput{"5"}, Title: "standup", RemindAt: "2026-10-16T09:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeReminder, res.Message.Type)
	assert.Equal(t, []uint{5, 1}, res.Recipients)

	_, err = uc.CreateDailyTask(ctx, owner, &dto.CreateDailyTaskRequest{Title: "water plants", Time: "25:00"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	res, err = uc.CreateDailyTask(ctx, owner, &dto.CreateDailyTaskRequest{Title: "water plants", Time: "07:30"})
	require.NoError(t, err)
	var daily domain.DailyTaskPayload
	require.NoError(t, res.Message.DecodePayload(&daily))
	assert.True(t, daily.Active)
	assert.Equal(t, []uint{1}, res.Recipients)
}

func TestUpdateReminder_RearmsOnNewTime(t *testing.T) {
	uc, deliveries := newTaskUsecase(t)
	ctx := context.Background()
	owner := msgusecase.Origin{UserID: 1}
	created, err := uc.CreateReminder(ctx, owner, &dto.CreateReminderRequest{
		Recipients: fanout.ParseRecipients("2"),
		Title:      "Call",
		RemindAt:   "2026-10-20T09:00:00Z",
	})
	require.NoError(t, err)

	updated, err := uc.UpdateReminder(ctx, owner, created.Message.ID, &dto.UpdateReminderRequest{
		Recipients: fanout.ParseRecipients("3"),
		RemindAt:   ptr("2026-10-21T09:00:00Z"),
	})
	require.NoError(t, err)
	var p domain.ReminderPayload
	require.NoError(t, updated.Message.DecodePayload(&p))
	assert.Equal(t, "Call", p.Title)
	assert.Equal(t, 21, p.RemindAt.Day())
	assert.False(t, p.Sent)

	ids, err := deliveries.ReceiverIDs(ctx, created.Message.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, ids)

	_, err = uc.UpdateReminder(ctx, owner, created.Message.ID, &dto.UpdateReminderRequest{RemindAt: ptr("")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = uc.UpdateReminder(ctx, msgusecase.Origin{UserID: 3}, created.Message.ID, &dto.UpdateReminderRequest{Title: ptr("mine")})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestUpdateDailyTask_Pause(t *testing.T) {
	uc, _ := newTaskUsecase(t)
	ctx := context.Background()
	owner := msgusecase.Origin{UserID: 1}
	created, err := uc.CreateDailyTask(ctx, owner, &dto.CreateDailyTaskRequest{Title: "Standup", Time: "09:30"})
	require.NoError(t, err)

	off := false
	updated, err := uc.UpdateDailyTask(ctx, owner, created.Message.ID, &dto.UpdateDailyTaskRequest{Active: &off, Time: ptr("10:00")})
	require.NoError(t, err)
	var p domain.DailyTaskPayload
	require.NoError(t, updated.Message.DecodePayload(&p))
	assert.False(t, p.Active)
	assert.Equal(t, "10:00", p.Time)

	_, err = uc.UpdateDailyTask(ctx, owner, created.Message.ID, &dto.UpdateDailyTaskRequest{Time: ptr("late")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	task, err := uc.CreateTask(ctx, owner, &dto.CreateTaskRequest{Title: "not daily"})
	require.NoError(t, err)
	_, err = uc.UpdateDailyTask(ctx, owner, task.Message.ID, &dto.UpdateDailyTaskRequest{Active: &off})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

package usecase

import (
	"context"

	"collab-backend/internal/message/domain"
	msgusecase "collab-backend/internal/message/usecase"
	"collab-backend/internal/task/dto"
)

// TaskUsecase defines the interface for task, reminder and daily task logic.
// Every item is a message of the matching type.
type TaskUsecase interface {
	CreateTask(ctx context.Context, origin msgusecase.Origin, req *dto.CreateTaskRequest) (*msgusecase.Result, error)

	// GetTask retrieves a task the user sent or was assigned
	GetTask(ctx context.Context, userID, taskID uint) (*msgusecase.Result, error)

	// ListTasks retrieves the user's tasks with optional status filter
	ListTasks(ctx context.Context, userID uint, status string, limit, offset int) ([]*domain.Message, int64, error)

	UpdateTask(ctx context.Context, origin msgusecase.Origin, taskID uint, req *dto.UpdateTaskRequest) (*msgusecase.Result, error)

	// UpdateTaskStatus may be called by any participant
	UpdateTaskStatus(ctx context.Context, origin msgusecase.Origin, taskID uint, status string) (*msgusecase.Result, error)

	DeleteTask(ctx context.Context, origin msgusecase.Origin, taskID uint) error

	CreateReminder(ctx context.Context, origin msgusecase.Origin, req *dto.CreateReminderRequest) (*msgusecase.Result, error)

	// UpdateReminder is owner only; a new remind_at sends it again when due
	UpdateReminder(ctx context.Context, origin msgusecase.Origin, reminderID uint, req *dto.UpdateReminderRequest) (*msgusecase.Result, error)

	CreateDailyTask(ctx context.Context, origin msgusecase.Origin, req *dto.CreateDailyTaskRequest) (*msgusecase.Result, error)

	UpdateDailyTask(ctx context.Context, origin msgusecase.Origin, dailyID uint, req *dto.UpdateDailyTaskRequest) (*msgusecase.Result, error)
}

package usecase

import (
	"context"
	"time"

	"collab-backend/internal/message/domain"
	"collab-backend/internal/message/repository"
	msgusecase "collab-backend/internal/message/usecase"
	"collab-backend/internal/task/dto"
	"collab-backend/pkg/apperror"
)

// taskUsecase implements TaskUsecase interface
type taskUsecase struct {
	messages msgusecase.MessageUsecase
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(messages msgusecase.MessageUsecase) TaskUsecase {
	return &taskUsecase{messages: messages}
}

func (u *taskUsecase) CreateTask(ctx context.Context, origin msgusecase.Origin, req *dto.CreateTaskRequest) (*msgusecase.Result, error) {
	task := &domain.TaskPayload{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.ParsePriority(req.Priority),
		Status:      domain.TaskStatusPending,
	}
	var err error
	if task.DueDate, err = parseOptionalTime("due_date", req.DueDate); err != nil {
		return nil, err
	}
	if task.ReminderAt, err = parseOptionalTime("reminder_at", req.ReminderAt); err != nil {
		return nil, err
	}
	return u.messages.Create(ctx, origin, domain.TypeTask, req.Recipients, task)
}

func (u *taskUsecase) GetTask(ctx context.Context, userID, taskID uint) (*msgusecase.Result, error) {
	res, err := u.messages.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if res.Message.Type != domain.TypeTask {
		return nil, apperror.NotFound("task not found")
	}
	return res, nil
}

func (u *taskUsecase) ListTasks(ctx context.Context, userID uint, status string, limit, offset int) ([]*domain.Message, int64, error) {
	filter := repository.ListFilter{
		Types:  []domain.MessageType{domain.TypeTask},
		Limit:  limit,
		Offset: offset,
	}
	if status != "" {
		s, err := domain.ParseTaskStatus(status)
		if err != nil {
			return nil, 0, apperror.ValidationField("status", err.Error())
		}
		filter.PayloadEquals = map[string]string{"status": string(s)}
	}
	return u.messages.List(ctx, userID, filter)
}

func (u *taskUsecase) UpdateTask(ctx context.Context, origin msgusecase.Origin, taskID uint, req *dto.UpdateTaskRequest) (*msgusecase.Result, error) {
	return u.messages.Modify(ctx, origin, taskID, domain.TypeTask, req.Recipients, func(p domain.Payload) error {
		task := p.(*domain.TaskPayload)
		if req.Title != nil {
			task.Title = *req.Title
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.Priority != nil {
			task.Priority = domain.ParsePriority(*req.Priority)
		}
		if req.Status != nil {
			s, err := domain.ParseTaskStatus(*req.Status)
			if err != nil {
				return apperror.ValidationField("status", err.Error())
			}
			task.Status = s
		}
		if req.DueDate != nil {
			due, err := parseOptionalTime("due_date", req.DueDate)
			if err != nil {
				return err
			}
			task.DueDate = due
		}
		if req.ReminderAt != nil {
			at, err := parseOptionalTime("reminder_at", req.ReminderAt)
			if err != nil {
				return err
			}
			task.ReminderAt = at
			task.ReminderSent = false // Reset reminder status when time changes
		}
		return nil
	})
}

func (u *taskUsecase) UpdateTaskStatus(ctx context.Context, origin msgusecase.Origin, taskID uint, status string) (*msgusecase.Result, error) {
	s, err := domain.ParseTaskStatus(status)
	if err != nil {
		return nil, apperror.ValidationField("status", err.Error())
	}
	return u.messages.Touch(ctx, origin, taskID, domain.TypeTask, func(p domain.Payload) error {
		p.(*domain.TaskPayload).Status = s
		return nil
	})
}

func (u *taskUsecase) DeleteTask(ctx context.Context, origin msgusecase.Origin, taskID uint) error {
	if _, err := u.GetTask(ctx, origin.UserID, taskID); err != nil {
		return err
	}
	return u.messages.Delete(ctx, origin, taskID)
}

func (u *taskUsecase) CreateReminder(ctx context.Context, origin msgusecase.Origin, req *dto.CreateReminderRequest) (*msgusecase.Result, error) {
	at, err := parseOptionalTime("remind_at", &req.RemindAt)
	if err != nil {
		return nil, err
	}
	reminder := &domain.ReminderPayload{Title: req.Title, Note: req.Note}
	if at != nil {
		reminder.RemindAt = *at
	}
	return u.messages.Create(ctx, origin, domain.TypeReminder, req.Recipients, reminder)
}

func (u *taskUsecase) UpdateReminder(ctx context.Context, origin msgusecase.Origin, reminderID uint, req *dto.UpdateReminderRequest) (*msgusecase.Result, error) {
	return u.messages.Modify(ctx, origin, reminderID, domain.TypeReminder, req.Recipients, func(p domain.Payload) error {
		reminder := p.(*domain.ReminderPayload)
		if req.Title != nil {
			reminder.Title = *req.Title
		}
		if req.Note != nil {
			reminder.Note = *req.Note
		}
		if req.RemindAt != nil {
			at, err := parseOptionalTime("remind_at", req.RemindAt)
			if err != nil {
				return err
			}
			if at == nil {
				return apperror.ValidationField("remind_at", "remind_at cannot be cleared")
			}
			if !at.Equal(reminder.RemindAt) {
				reminder.RemindAt = *at
				reminder.Sent = false
			}
		}
		return nil
	})
}

func (u *taskUsecase) CreateDailyTask(ctx context.Context, origin msgusecase.Origin, req *dto.CreateDailyTaskRequest) (*msgusecase.Result, error) {
	daily := &domain.DailyTaskPayload{
		Title:       req.Title,
		Description: req.Description,
		Time:        req.Time,
		Active:      true,
	}
	return u.messages.Create(ctx, origin, domain.TypeDailyTask, req.Recipients, daily)
}

func (u *taskUsecase) UpdateDailyTask(ctx context.Context, origin msgusecase.Origin, dailyID uint, req *dto.UpdateDailyTaskRequest) (*msgusecase.Result, error) {
	return u.messages.Modify(ctx, origin, dailyID, domain.TypeDailyTask, req.Recipients, func(p domain.Payload) error {
		daily := p.(*domain.DailyTaskPayload)
		if req.Title != nil {
			daily.Title = *req.Title
		}
		if req.Description != nil {
			daily.Description = *req.Description
		}
		if req.Time != nil {
			daily.Time = *req.Time
		}
		if req.Active != nil {
			daily.Active = *req.Active
		}
		return nil
	})
}

// parseOptionalTime treats nil and "" as unset.
func parseOptionalTime(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, apperror.ValidationField(field, field+" must be an RFC3339 timestamp")
	}
	return &t, nil
}

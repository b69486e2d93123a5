package dto

import "collab-backend/internal/fanout"

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Recipients  fanout.RecipientInput `json:"recipients" form:"recipients"`
	Title       string                `json:"title" form:"title" binding:"required"`
	Description string                `json:"description" form:"description"`
	DueDate     *string               `json:"due_date" form:"due_date"`
	Priority    string                `json:"priority" form:"priority"`
	ReminderAt  *string               `json:"reminder_at" form:"reminder_at"`
}

// UpdateTaskRequest represents the fields that can be updated. Omitted
// recipients keep the current delivery set.
type UpdateTaskRequest struct {
	Recipients  fanout.RecipientInput `json:"recipients,omitempty"`
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	DueDate     *string               `json:"due_date,omitempty"`
	Priority    *string               `json:"priority,omitempty"`
	Status      *string               `json:"status,omitempty"`
	ReminderAt  *string               `json:"reminder_at,omitempty"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateReminderRequest struct {
	Recipients fanout.RecipientInput `json:"recipients" form:"recipients"`
	Title      string                `json:"title" form:"title" binding:"required"`
	Note       string                `json:"note" form:"note"`
	RemindAt   string                `json:"remind_at" form:"remind_at" binding:"required"`
}

// UpdateReminderRequest changes a reminder. A new remind_at rearms it.
type UpdateReminderRequest struct {
	Recipients fanout.RecipientInput `json:"recipients,omitempty"`
	Title      *string               `json:"title,omitempty"`
	Note       *string               `json:"note,omitempty"`
	RemindAt   *string               `json:"remind_at,omitempty"`
}

type CreateDailyTaskRequest struct {
	Recipients  fanout.RecipientInput `json:"recipients" form:"recipients"`
	Title       string                `json:"title" form:"title" binding:"required"`
	Description string                `json:"description" form:"description"`
	Time        string                `json:"time" form:"time" binding:"required"`
}

// UpdateDailyTaskRequest changes a daily task; active=false pauses it.
type UpdateDailyTaskRequest struct {
	Recipients  fanout.RecipientInput `json:"recipients,omitempty"`
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	Time        *string               `json:"time,omitempty"`
	Active      *bool                 `json:"active,omitempty"`
}

type ListTasksQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

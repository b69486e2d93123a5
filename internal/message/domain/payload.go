package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Priority represents task priority level
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority defaults unknown and empty values to medium.
func ParsePriority(p string) Priority {
	switch Priority(strings.ToLower(p)) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return TaskStatus(s), nil
	}
	return "", errors.New("status must be one of: pending, in_progress, completed")
}

// Payload is implemented by every typed message body.
type Payload interface {
	Validate() error
	// Summary is the push notification title/body for the payload.
	Summary() (title, body string)
}

type TextPayload struct {
	Body string `json:"body"`
}

func (p TextPayload) Validate() error {
	if strings.TrimSpace(p.Body) == "" {
		return errors.New("body is required")
	}
	return nil
}

func (p TextPayload) Summary() (string, string) { return "New message", p.Body }

// AttachmentPayload references a file already uploaded to object storage.
type AttachmentPayload struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

func (p AttachmentPayload) Validate() error {
	if strings.TrimSpace(p.URL) == "" {
		return errors.New("url is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

func (p AttachmentPayload) Summary() (string, string) {
	if p.Caption != "" {
		return "New attachment", p.Caption
	}
	return "New attachment", p.Name
}

type TaskPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	ReminderAt  *time.Time `json:"reminder_at,omitempty"`
	// ReminderSent tracks if the reminder at ReminderAt went out
	ReminderSent bool `json:"reminder_sent"`
}

func (p TaskPayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title is required")
	}
	if _, err := ParseTaskStatus(string(p.Status)); err != nil {
		return err
	}
	return nil
}

func (p TaskPayload) Summary() (string, string) {
	body := p.Description
	if body == "" {
		body = "You have a new task"
	}
	if p.DueDate != nil {
		body += "\nDue: " + p.DueDate.Format("02/01/2006 15:04")
	}
	return "New task: " + p.Title, body
}

type ReminderPayload struct {
	Title    string    `json:"title"`
	Note     string    `json:"note,omitempty"`
	RemindAt time.Time `json:"remind_at"`
	Sent     bool      `json:"sent"`
}

func (p ReminderPayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title is required")
	}
	if p.RemindAt.IsZero() {
		return errors.New("remind_at is required")
	}
	return nil
}

func (p ReminderPayload) Summary() (string, string) {
	body := p.Note
	if body == "" {
		body = "Reminder at " + p.RemindAt.Format("02/01/2006 15:04")
	}
	return "Reminder: " + p.Title, body
}

type MeetingPayload struct {
	Title    string    `json:"title"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	Location string    `json:"location,omitempty"`
	Link     string    `json:"link,omitempty"`
}

func (p MeetingPayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title is required")
	}
	if p.StartAt.IsZero() {
		return errors.New("start_at is required")
	}
	if !p.EndAt.IsZero() && p.EndAt.Before(p.StartAt) {
		return errors.New("end_at must be after start_at")
	}
	return nil
}

func (p MeetingPayload) Summary() (string, string) {
	return "Meeting: " + p.Title, "Starts " + p.StartAt.Format("02/01/2006 15:04")
}

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// DailyTaskPayload is re-sent to its recipients once per day.
type DailyTaskPayload struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Time is the local "15:04" the task is due each day.
	Time       string `json:"time"`
	Active     bool   `json:"active"`
	LastSentOn string `json:"last_sent_on,omitempty"` // 2006-01-02
}

func (p DailyTaskPayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title is required")
	}
	if !clockPattern.MatchString(p.Time) {
		return errors.New("time must be HH:MM")
	}
	return nil
}

func (p DailyTaskPayload) Summary() (string, string) {
	body := p.Description
	if body == "" {
		body = "Due today at " + p.Time
	}
	return "Daily task: " + p.Title, body
}

type SimpleTaskPayload struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

func (p SimpleTaskPayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

func (p SimpleTaskPayload) Summary() (string, string) { return "New task", p.Title }

// NewPayload returns an empty payload value for t.
func NewPayload(t MessageType) Payload {
	switch t {
	case TypeText:
		return &TextPayload{}
	case TypeAttachment:
		return &AttachmentPayload{}
	case TypeTask:
		return &TaskPayload{}
	case TypeReminder:
		return &ReminderPayload{}
	case TypeMeeting:
		return &MeetingPayload{}
	case TypeDailyTask:
		return &DailyTaskPayload{}
	case TypeSimpleTask:
		return &SimpleTaskPayload{}
	}
	return nil
}

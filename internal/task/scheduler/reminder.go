package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"collab-backend/internal/message/domain"
	"collab-backend/internal/message/repository"
	msgusecase "collab-backend/internal/message/usecase"
)

// ReminderScheduler fires reminders and task reminders whose time has come
type ReminderScheduler struct {
	base
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewReminderScheduler creates a new scheduler
func NewReminderScheduler(
	messages repository.MessageRepository,
	deliveries repository.DeliveryRepository,
	notifier Renotifier,
	interval time.Duration,
	log zerolog.Logger,
) *ReminderScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReminderScheduler{
		base: base{
			messages:   messages,
			deliveries: deliveries,
			notifier:   notifier,
			log:        log,
		},
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *ReminderScheduler) Start() {
	s.log.Info().Dur("interval", s.interval).Msg("starting reminder scheduler")

	go func() {
		// Run immediately on start
		s.CheckDue(context.Background(), time.Now())

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				s.CheckDue(context.Background(), now)
			case <-s.stopChan:
				s.log.Info().Msg("reminder scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *ReminderScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// CheckDue sends every unsent reminder due at or before now and returns how
// many went out.
func (s *ReminderScheduler) CheckDue(ctx context.Context, now time.Time) int {
	return s.dueReminders(ctx, now) + s.dueTaskReminders(ctx, now)
}

func (s *ReminderScheduler) dueReminders(ctx context.Context, now time.Time) int {
	msgs, err := s.messages.FindByType(ctx, domain.TypeReminder)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load reminders")
		return 0
	}

	sent := 0
	for _, msg := range msgs {
		var p domain.ReminderPayload
		if err := msg.DecodePayload(&p); err != nil {
			s.log.Warn().Err(err).Uint("message_id", msg.ID).Msg("skipping unreadable reminder")
			continue
		}
		if p.Sent || p.RemindAt.After(now) {
			continue
		}

		p.Sent = true
		title, body := p.Summary()
		if s.send(ctx, msg, &p, msgusecase.EventReminder, title, body) {
			sent++
		}
	}
	return sent
}

func (s *ReminderScheduler) dueTaskReminders(ctx context.Context, now time.Time) int {
	msgs, err := s.messages.FindByType(ctx, domain.TypeTask)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load tasks")
		return 0
	}

	sent := 0
	for _, msg := range msgs {
		var p domain.TaskPayload
		if err := msg.DecodePayload(&p); err != nil {
			s.log.Warn().Err(err).Uint("message_id", msg.ID).Msg("skipping unreadable task")
			continue
		}
		if p.ReminderAt == nil || p.ReminderSent || p.ReminderAt.After(now) || p.Status == domain.TaskStatusCompleted {
			continue
		}

		p.ReminderSent = true
		body := p.Description
		if body == "" {
			body = "You have a task to finish"
		}
		if p.DueDate != nil {
			body += "\nDue: " + p.DueDate.Format("02/01/2006 15:04")
		}
		if s.send(ctx, msg, &p, msgusecase.EventReminder, priorityTag(p.Priority)+" Reminder: "+p.Title, body) {
			sent++
		}
	}
	return sent
}

func priorityTag(p domain.Priority) string {
	switch p {
	case domain.PriorityHigh:
		return "[high]"
	case domain.PriorityLow:
		return "[low]"
	default:
		return "[medium]"
	}
}

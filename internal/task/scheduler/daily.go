package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"collab-backend/internal/message/domain"
	"collab-backend/internal/message/repository"
	msgusecase "collab-backend/internal/message/usecase"
)

const dayLayout = "2006-01-02"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// DailyTaskScheduler sends every active daily task to its recipients once per
// calendar day in the configured time zone.
type DailyTaskScheduler struct {
	base
	spec string
	loc  *time.Location
	c    *cron.Cron
}

func NewDailyTaskScheduler(
	messages repository.MessageRepository,
	deliveries repository.DeliveryRepository,
	notifier Renotifier,
	spec string,
	loc *time.Location,
	log zerolog.Logger,
) (*DailyTaskScheduler, error) {
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid daily task schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailyTaskScheduler{
		base: base{
			messages:   messages,
			deliveries: deliveries,
			notifier:   notifier,
			log:        log,
		},
		spec: spec,
		loc:  loc,
	}, nil
}

func (s *DailyTaskScheduler) Start() error {
	s.c = cron.New(cron.WithParser(parser), cron.WithLocation(s.loc))
	if _, err := s.c.AddFunc(s.spec, func() {
		s.SendDaily(context.Background(), time.Now())
	}); err != nil {
		return err
	}
	s.c.Start()
	s.log.Info().Str("spec", s.spec).Str("tz", s.loc.String()).Msg("daily task scheduler started")
	return nil
}

func (s *DailyTaskScheduler) Stop() {
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
}

// SendDaily sends each active daily task not yet sent on now's date and
// returns how many went out.
func (s *DailyTaskScheduler) SendDaily(ctx context.Context, now time.Time) int {
	today := now.In(s.loc).Format(dayLayout)
	msgs, err := s.messages.FindByType(ctx, domain.TypeDailyTask)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load daily tasks")
		return 0
	}

	sent := 0
	for _, msg := range msgs {
		var p domain.DailyTaskPayload
		if err := msg.DecodePayload(&p); err != nil {
			s.log.Warn().Err(err).Uint("message_id", msg.ID).Msg("skipping unreadable daily task")
			continue
		}
		if !p.Active || p.LastSentOn == today {
			continue
		}

		p.LastSentOn = today
		title, body := p.Summary()
		if s.send(ctx, msg, &p, msgusecase.EventDaily, title, body) {
			sent++
		}
	}
	if sent > 0 {
		s.log.Info().Int("sent", sent).Str("day", today).Msg("daily tasks sent")
	}
	return sent
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	api "collab-backend/cmd/api"
	authRepo "collab-backend/internal/auth/repository"
	authUsecase "collab-backend/internal/auth/usecase"
	"collab-backend/internal/fanout"
	messageRepo "collab-backend/internal/message/repository"
	messageUsecase "collab-backend/internal/message/usecase"
	"collab-backend/internal/notification"
	"collab-backend/internal/realtime"
	"collab-backend/internal/task/scheduler"
	taskUsecase "collab-backend/internal/task/usecase"
	"collab-backend/pkg/config"
	"collab-backend/pkg/database"
	"collab-backend/pkg/fcm"
	"collab-backend/pkg/logger"
	"collab-backend/pkg/sse"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto-migrate database schemas
	if err := authRepo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate auth schema")
	}
	if err := messageRepo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate message schema")
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	deviceRepo := authRepo.NewDeviceTokenRepository(db)
	messages := messageRepo.NewGormMessageRepository(db)
	deliveries := messageRepo.NewGormDeliveryRepository(db)

	// Initialize SSE Manager
	sseManager := sse.NewManager(logger.Component(log, "sse"))
	go sseManager.Run()
	defer sseManager.Stop()

	broadcaster := newBroadcaster(ctx, cfg, sseManager, log)

	// FCM is optional; without it stored tokens are kept and pushes are skipped
	var push notification.PushClient
	if cfg.FirebaseCredentials != "" {
		client, err := fcm.NewClient(ctx, cfg.FirebaseCredentials, logger.Component(log, "fcm"))
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize FCM client, push notifications disabled")
		} else {
			push = client
		}
	} else {
		log.Debug().Msg("no Firebase credentials configured, FCM disabled")
	}

	orchestrator := fanout.NewOrchestrator(
		deliveries,
		notification.NewTokenValidator(deviceRepo, push),
		notification.NewDispatcher(push, logger.Component(log, "push")),
		deviceRepo,
		broadcaster,
		fanout.WithCallTimeout(cfg.FanOutCallTimeout),
		fanout.WithConcurrency(cfg.FanOutConcurrency),
		fanout.WithLogger(logger.Component(log, "fanout")),
	)

	// Initialize use cases (dependency injection)
	authUc := authUsecase.NewAuthUsecase(userRepo, deviceRepo, cfg)
	messageUc := messageUsecase.NewMessageUsecase(messages, deliveries, userRepo, orchestrator, logger.Component(log, "message"))
	taskUc := taskUsecase.NewTaskUsecase(messageUc)

	// Background schedulers
	reminders := scheduler.NewReminderScheduler(messages, deliveries, orchestrator, cfg.ReminderInterval, logger.Component(log, "reminder"))
	reminders.Start()
	defer reminders.Stop()

	daily, err := scheduler.NewDailyTaskScheduler(messages, deliveries, orchestrator, cfg.DailyTaskCron, cfg.Location(), logger.Component(log, "daily"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create daily task scheduler")
	}
	if err := daily.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start daily task scheduler")
	}
	defer daily.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(authUc, messageUc, taskUc, sseManager, logger.Component(log, "http"))

	// Start server
	if err := handler.Start(ctx, ":"+cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

// newBroadcaster picks the realtime transport. Redis and Pub/Sub relay events
// between instances and deliver them to this instance's SSE streams.
func newBroadcaster(ctx context.Context, cfg *config.Config, sink realtime.Sink, log zerolog.Logger) fanout.Broadcaster {
	rlog := logger.Component(log, "realtime")

	switch cfg.RealtimeDriver {
	case "redis":
		r, err := realtime.NewRedis(cfg.RedisURL, sink, rlog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize redis relay")
		}
		go func() {
			defer r.Close()
			if err := r.Run(ctx); err != nil {
				rlog.Error().Err(err).Msg("redis relay stopped")
			}
		}()
		return r
	case "pubsub":
		if cfg.GoogleProjectID == "" {
			log.Fatal().Msg("GOOGLE_PROJECT_ID is required for the pubsub realtime driver")
		}
		p, err := realtime.NewPubSub(ctx, cfg.GoogleProjectID, cfg.GooglePubSubTopic, cfg.GoogleCredentials, sink, rlog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize pubsub relay")
		}
		go func() {
			defer p.Close()
			if err := p.Run(ctx); err != nil {
				rlog.Error().Err(err).Msg("pubsub relay stopped")
			}
		}()
		return p
	default:
		rlog.Info().Msg("using in-process realtime delivery")
		return realtime.NewLocal(sink)
	}
}

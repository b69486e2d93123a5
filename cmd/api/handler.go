package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authDelivery "collab-backend/internal/auth/delivery"
	authUsecase "collab-backend/internal/auth/usecase"
	messageDelivery "collab-backend/internal/message/delivery"
	messageUsecase "collab-backend/internal/message/usecase"
	taskDelivery "collab-backend/internal/task/delivery"
	taskUsecase "collab-backend/internal/task/usecase"
	"collab-backend/pkg/sse"
)

type Handler struct {
	authUsecase    authUsecase.AuthUsecase
	sseManager     *sse.Manager
	authHandler    *authDelivery.AuthHandler
	messageHandler *messageDelivery.MessageHandler
	taskHandler    *taskDelivery.TaskHandler
	log            zerolog.Logger
}

func NewHandler(authUc authUsecase.AuthUsecase, messageUc messageUsecase.MessageUsecase, taskUc taskUsecase.TaskUsecase, sseManager *sse.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		authUsecase:    authUc,
		sseManager:     sseManager,
		authHandler:    authDelivery.NewAuthHandler(authUc),
		messageHandler: messageDelivery.NewMessageHandler(messageUc),
		taskHandler:    taskDelivery.NewTaskHandler(taskUc),
		log:            log,
	}
}

// Engine builds the gin engine with middleware and routes.
func (h *Handler) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.log), CORS())
	SetupRoutes(r, h)
	return r
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (h *Handler) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.log.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h.log.Info().Msg("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

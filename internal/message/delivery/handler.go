package delivery

import (
	"strings"

	"github.com/gin-gonic/gin"

	authdelivery "collab-backend/internal/auth/delivery"
	"collab-backend/internal/message/domain"
	"collab-backend/internal/message/dto"
	"collab-backend/internal/message/repository"
	"collab-backend/internal/message/usecase"
	"collab-backend/pkg/apperror"
	"collab-backend/pkg/response"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	messageUsecase usecase.MessageUsecase
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageUsecase usecase.MessageUsecase) *MessageHandler {
	return &MessageHandler{messageUsecase: messageUsecase}
}

func origin(c *gin.Context) usecase.Origin {
	return usecase.Origin{UserID: authdelivery.UserID(c), SocketID: authdelivery.SocketID(c)}
}

// ListMessages returns the messages delivered to the caller
// GET /api/messages?type=text,meeting&limit=20&offset=0
func (h *MessageHandler) ListMessages(c *gin.Context) {
	var q dto.ListMessagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	var types []domain.MessageType
	if q.Type != "" {
		for _, raw := range strings.Split(q.Type, ",") {
			t, err := domain.ParseMessageType(strings.TrimSpace(raw))
			if err != nil {
				response.Error(c, apperror.ValidationField("type", err.Error()))
				return
			}
			types = append(types, t)
		}
	}

	msgs, total, err := h.messageUsecase.List(c.Request.Context(), authdelivery.UserID(c), repository.ListFilter{
		Types:  types,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]*dto.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, &dto.MessageResponse{Message: m})
	}
	response.OK(c, "Messages retrieved", dto.MessageListResponse{
		Messages: out,
		Total:    total,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
}

// SendMessage
// POST /api/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.messageUsecase.Send(c.Request.Context(), origin(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Message sent", res.Response())
}

// GetMessage
// GET /api/messages/:id
func (h *MessageHandler) GetMessage(c *gin.Context) {
	id, err := response.IDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.messageUsecase.Get(c.Request.Context(), authdelivery.UserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Message retrieved", res.Response())
}

// UpdateMessage
// PUT /api/messages/:id
func (h *MessageHandler) UpdateMessage(c *gin.Context) {
	id, err := response.IDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.messageUsecase.Update(c.Request.Context(), origin(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Message updated", res.Response())
}

// DeleteMessage
// DELETE /api/messages/:id
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id, err := response.IDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.messageUsecase.Delete(c.Request.Context(), origin(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Message deleted", nil)
}

// RegisterRoutes mounts the message endpoints on an authenticated group.
func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	messages := rg.Group("/messages")
	messages.GET("", h.ListMessages)
	messages.POST("", h.SendMessage)
	messages.GET("/:id", h.GetMessage)
	messages.PUT("/:id", h.UpdateMessage)
	messages.DELETE("/:id", h.DeleteMessage)
}

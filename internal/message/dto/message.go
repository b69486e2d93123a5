package dto

import (
	"encoding/json"

	"collab-backend/internal/fanout"
	"collab-backend/internal/message/domain"
)

type SendMessageRequest struct {
	Type       string                `json:"type" binding:"required"`
	Recipients fanout.RecipientInput `json:"recipients"`
	Payload    json.RawMessage       `json:"payload" binding:"required"`
}

// UpdateMessageRequest replaces the payload. Omitting recipients keeps the
// current delivery set.
type UpdateMessageRequest struct {
	Recipients fanout.RecipientInput `json:"recipients"`
	Payload    json.RawMessage       `json:"payload" binding:"required"`
}

type ListMessagesQuery struct {
	Type   string `form:"type"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// deliveryFailed is the only failure text clients see; the cause is logged by
// the fan-out.
const deliveryFailed = "delivery failed"

type FailureResponse struct {
	RecipientID uint   `json:"recipient_id,omitempty"`
	Step        string `json:"step"`
	Error       string `json:"error"`
}

// DeliveryResponse summarizes how a fan-out went.
type DeliveryResponse struct {
	Recipients int               `json:"recipients"`
	Broadcasts int               `json:"broadcasts"`
	Dispatches int               `json:"dispatches"`
	Pruned     int               `json:"pruned_tokens"`
	Partial    bool              `json:"partial"`
	Failures   []FailureResponse `json:"failures,omitempty"`
}

type MessageResponse struct {
	*domain.Message
	Recipients []uint            `json:"recipients,omitempty"`
	Delivery   *DeliveryResponse `json:"delivery,omitempty"`
}

type MessageListResponse struct {
	Messages []*MessageResponse `json:"messages"`
	Total    int64              `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

func NewDeliveryResponse(r *fanout.Report) *DeliveryResponse {
	if r == nil {
		return nil
	}
	out := &DeliveryResponse{
		Recipients: len(r.Recipients),
		Broadcasts: r.Broadcasts,
		Dispatches: r.Dispatches,
		Pruned:     len(r.PrunedTokens),
		Partial:    r.Partial(),
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, FailureResponse{
			RecipientID: f.RecipientID,
			Step:        string(f.Step),
			Error:       deliveryFailed,
		})
	}
	return out
}

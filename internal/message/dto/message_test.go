package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab-backend/internal/fanout"
	"collab-backend/pkg/apperror"
)

func TestNewDeliveryResponse_HidesFailureCause(t *testing.T) {
	cause := errors.New(`pq: password authentication failed for user "app" host 10.0.0.5`)
	report := &fanout.Report{
		MessageID:    4,
		Recipients:   []uint{2, 1},
		Broadcasts:   2,
		Dispatches:   1,
		PrunedTokens: []string{"stale"},
		Failures: []fanout.RecipientFailure{
			{RecipientID: 2, Step: fanout.StepValidate, Err: apperror.Internal("load device tokens", cause)},
		},
	}

	resp := NewDeliveryResponse(report)
	require.NotNil(t, resp)
	assert.Equal(t, 2, resp.Recipients)
	assert.Equal(t, 1, resp.Pruned)
	assert.True(t, resp.Partial)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, FailureResponse{RecipientID: 2, Step: "validate", Error: "delivery failed"}, resp.Failures[0])

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "10.0.0.5")
	assert.NotContains(t, string(body), "load device tokens")
}

func TestNewDeliveryResponse_Nil(t *testing.T) {
	assert.Nil(t, NewDeliveryResponse(nil))
}

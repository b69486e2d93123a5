package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := NotFound("task not found")
	wrapped := fmt.Errorf("load: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := External("fcm", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "fcm request failed: connection reset", err.Error())
	assert.Equal(t, KindExternalService, KindOf(err))
}

func TestValidationField(t *testing.T) {
	err := ValidationField("title", "title is required")

	var appErr *Error
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "title", appErr.Field)
	assert.Equal(t, "title is required", err.Error())
}

// Package response writes the {status_code, message, data} envelope used by
// every endpoint.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"collab-backend/pkg/apperror"
)

const genericFailure = "Something went wrong"

type Envelope struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{StatusCode: http.StatusOK, Message: message, Data: data})
}

// Error maps err onto one of the fixed status codes. Server-side failures are
// logged with their call site and reported with a generic message.
func Error(c *gin.Context, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		logFailure(c, err)
	}
	c.AbortWithStatusJSON(status, Envelope{StatusCode: status, Message: message, Data: nil})
}

// BindError converts a gin binding failure into a 400 carrying the first
// failing field's message.
func BindError(c *gin.Context, err error) {
	Error(c, apperror.Validation(FirstFieldMessage(err)))
}

// IDParam parses a positive numeric path parameter.
func IDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.ValidationField(name, name+" must be a positive integer")
	}
	return uint(id), nil
}

func classify(err error) (int, string) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, genericFailure
	}
	switch appErr.Kind {
	case apperror.KindValidation:
		return http.StatusBadRequest, appErr.Message
	case apperror.KindNotFound:
		return http.StatusNotFound, appErr.Message
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized, appErr.Message
	case apperror.KindForbidden:
		return http.StatusForbidden, appErr.Message
	default:
		return http.StatusInternalServerError, genericFailure
	}
}

func logFailure(c *gin.Context, err error) {
	log := zerolog.Ctx(c.Request.Context())
	_, file, line, _ := runtime.Caller(2)
	log.Error().
		Str("method", c.Request.Method+" "+c.FullPath()).
		Str("file", file).
		Int("line", line).
		Time("at", time.Now()).
		Str("kind", string(apperror.KindOf(err))).
		Err(err).
		Msg("request failed")
}

// FirstFieldMessage renders the first validator failure in a readable form.
func FirstFieldMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", field)
		case "email":
			return fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case "oneof":
			return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		default:
			return fmt.Sprintf("%s is invalid", field)
		}
	}
	if err == nil {
		return "invalid request"
	}
	return err.Error()
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

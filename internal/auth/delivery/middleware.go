package delivery

import (
	"strings"

	"github.com/gin-gonic/gin"

	"collab-backend/internal/auth/usecase"
	"collab-backend/pkg/apperror"
	"collab-backend/pkg/response"
)

const (
	ctxUserKey   = "user"
	ctxUserIDKey = "userID"
	// SocketHeader carries the realtime connection id of the caller so its own
	// stream can be skipped when the action is broadcast.
	SocketHeader = "X-Socket-ID"
)

func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// EventSource cannot set headers, so the SSE endpoint passes it as a query param
			if tok := c.Query("access_token"); tok != "" {
				authHeader = "Bearer " + tok
			}
		}
		if authHeader == "" {
			response.Error(c, apperror.Unauthorized("authorization header required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, apperror.Unauthorized("invalid authorization header format"))
			return
		}

		user, err := authUsecase.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxUserIDKey, user.ID)
		c.Next()
	}
}

// UserID returns the authenticated user's id set by AuthMiddleware.
func UserID(c *gin.Context) uint {
	return c.GetUint(ctxUserIDKey)
}

// SocketID returns the caller's realtime connection id, if any.
func SocketID(c *gin.Context) string {
	return c.GetHeader(SocketHeader)
}

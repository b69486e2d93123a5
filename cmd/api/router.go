package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authDelivery "collab-backend/internal/auth/delivery"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	requireAuth := authDelivery.AuthMiddleware(h.authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint
		api.GET("/events", requireAuth, func(c *gin.Context) {
			userID := strconv.FormatUint(uint64(authDelivery.UserID(c)), 10)
			h.sseManager.ServeHTTP(c, userID)
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.authHandler.Login)
			auth.POST("/register", h.authHandler.Register)
			auth.POST("/refresh", h.authHandler.RefreshToken)
			auth.GET("/me", requireAuth, h.authHandler.Me)
			auth.POST("/logout", h.authHandler.Logout)
		}

		// Device routes (protected)
		devices := api.Group("/devices")
		devices.Use(requireAuth)
		{
			devices.POST("", h.authHandler.RegisterDevice)
			devices.DELETE("/:token", h.authHandler.UnregisterDevice)
		}

		protected := api.Group("")
		protected.Use(requireAuth)
		h.messageHandler.RegisterRoutes(protected)
		h.taskHandler.RegisterRoutes(protected)
	}
}

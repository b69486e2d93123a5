package delivery

import (
	"github.com/gin-gonic/gin"

	authdto "collab-backend/internal/auth/dto"
	"collab-backend/internal/auth/usecase"
	"collab-backend/pkg/response"
)

// AuthHandler handles session and device registration requests
type AuthHandler struct {
	authUsecase usecase.AuthUsecase
}

func NewAuthHandler(authUsecase usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase}
}

// Register
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req authdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	tokens, err := h.authUsecase.Register(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Registered successfully", tokens)
}

// Login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req authdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	tokens, err := h.authUsecase.Login(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Logged in successfully", tokens)
}

// RefreshToken
// POST /api/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	tokens, err := h.authUsecase.RefreshToken(req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Token refreshed", tokens)
}

// Logout
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if err := h.authUsecase.Logout(req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Logged out successfully", nil)
}

// Me
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := c.Get(ctxUserKey)
	response.OK(c, "OK", user)
}

// RegisterDevice stores a push token for the caller
// POST /api/devices
func (h *AuthHandler) RegisterDevice(c *gin.Context) {
	var req authdto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if err := h.authUsecase.RegisterDevice(c.Request.Context(), UserID(c), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Device registered", nil)
}

// UnregisterDevice removes one of the caller's push tokens
// DELETE /api/devices/:token
func (h *AuthHandler) UnregisterDevice(c *gin.Context) {
	if err := h.authUsecase.UnregisterDevice(c.Request.Context(), UserID(c), c.Param("token")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Device unregistered", nil)
}

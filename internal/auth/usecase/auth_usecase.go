package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authdomain "collab-backend/internal/auth/domain"
	authdto "collab-backend/internal/auth/dto"
	"collab-backend/internal/auth/repository"
	"collab-backend/pkg/apperror"
	"collab-backend/pkg/config"
)

// AuthUsecase covers sessions and device registration
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)
	RegisterDevice(ctx context.Context, userID uint, req *authdto.RegisterDeviceRequest) error
	UnregisterDevice(ctx context.Context, userID uint, token string) error
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo   repository.UserRepository
	deviceRepo repository.DeviceTokenRepository
	config     *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, deviceRepo repository.DeviceTokenRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo:   userRepo,
		deviceRepo: deviceRepo,
		config:     cfg,
	}
}

var errInvalidCredentials = apperror.Unauthorized("invalid email or password")

func (u *authUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, apperror.Internal("find user", err)
	}
	if user == nil || !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, errInvalidCredentials
	}
	return u.generateTokens(user)
}

func (u *authUsecase) Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, apperror.Internal("find user", err)
	}
	if existing != nil {
		return nil, apperror.ValidationField("email", "email already registered")
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}

	user := &authdomain.User{
		Email:    req.Email,
		Password: hashedPassword,
		Name:     req.Name,
	}
	if err := u.userRepo.Create(user); err != nil {
		return nil, apperror.Internal("create user", err)
	}

	return u.generateTokens(user)
}

func (u *authUsecase) RefreshToken(refreshToken string) (*authdto.TokenResponse, error) {
	userID, err := u.parseSubject(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	storedToken, err := u.userRepo.FindRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Internal("find refresh token", err)
	}
	if storedToken == nil || storedToken.ExpiresAt.Before(time.Now()) {
		return nil, apperror.Unauthorized("refresh token expired")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperror.Internal("find user", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("user not found")
	}

	// rotate: the old refresh token is single use
	if err := u.userRepo.DeleteRefreshToken(refreshToken); err != nil {
		return nil, apperror.Internal("delete refresh token", err)
	}
	return u.generateTokens(user)
}

func (u *authUsecase) Logout(refreshToken string) error {
	if err := u.userRepo.DeleteRefreshToken(refreshToken); err != nil {
		return apperror.Internal("delete refresh token", err)
	}
	return nil
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	userID, err := u.parseSubject(tokenString)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperror.Internal("find user", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("user not found")
	}
	return user, nil
}

func (u *authUsecase) RegisterDevice(ctx context.Context, userID uint, req *authdto.RegisterDeviceRequest) error {
	platform := req.Platform
	if platform == "" {
		platform = "web"
	}
	if err := u.deviceRepo.SaveToken(ctx, userID, req.Token, platform, req.DeviceInfo); err != nil {
		return apperror.Internal("save device token", err)
	}
	return nil
}

func (u *authUsecase) UnregisterDevice(ctx context.Context, userID uint, token string) error {
	if err := u.deviceRepo.DeleteToken(ctx, userID, token); err != nil {
		return apperror.Internal("delete device token", err)
	}
	return nil
}

func (u *authUsecase) generateTokens(user *authdomain.User) (*authdto.TokenResponse, error) {
	now := time.Now()
	accessToken, err := u.sign(user.ID, uuid.New().String(), now, u.config.JWTAccessExpiry)
	if err != nil {
		return nil, apperror.Internal("sign access token", err)
	}
	refreshToken, err := u.sign(user.ID, uuid.New().String(), now, u.config.JWTRefreshExpiry)
	if err != nil {
		return nil, apperror.Internal("sign refresh token", err)
	}

	refreshTokenEntity := &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: now.Add(u.config.JWTRefreshExpiry),
	}
	if err := u.userRepo.SaveRefreshToken(refreshTokenEntity); err != nil {
		return nil, apperror.Internal("save refresh token", err)
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (u *authUsecase) sign(userID uint, tokenID string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) parseSubject(tokenString string) (uint, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, jwt.ErrTokenInvalidClaims
	}
	return uint(id), nil
}

package repository

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	authdomain "collab-backend/internal/auth/domain"
)

// DeviceTokenRepository defines the interface for device token operations
type DeviceTokenRepository interface {
	SaveToken(ctx context.Context, userID uint, token, platform, deviceInfo string) error
	GetTokensByUserID(ctx context.Context, userID uint) ([]authdomain.DeviceToken, error)
	DeleteToken(ctx context.Context, userID uint, token string) error
	PruneTokens(ctx context.Context, tokens []string) error
}

// deviceTokenRepository implements DeviceTokenRepository interface
type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository creates a new instance of deviceTokenRepository
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{
		db: db,
	}
}

// SaveToken saves or moves a device token to a user (atomic upsert)
func (r *deviceTokenRepository) SaveToken(ctx context.Context, userID uint, token, platform, deviceInfo string) error {
	now := time.Now()
	deviceToken := &authdomain.DeviceToken{
		UserID:     userID,
		Token:      token,
		Platform:   platform,
		DeviceInfo: deviceInfo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// INSERT ... ON CONFLICT (token) DO UPDATE
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "device_info", "updated_at"}),
	}).Create(deviceToken).Error
	if err != nil {
		return pkgerrors.Wrap(err, "deviceTokenRepo.SaveToken")
	}
	return nil
}

// GetTokensByUserID returns all device tokens for a user
func (r *deviceTokenRepository) GetTokensByUserID(ctx context.Context, userID uint) ([]authdomain.DeviceToken, error) {
	var tokens []authdomain.DeviceToken
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&tokens).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "deviceTokenRepo.GetTokensByUserID")
	}
	return tokens, nil
}

// DeleteToken removes one of the user's own tokens
func (r *deviceTokenRepository) DeleteToken(ctx context.Context, userID uint, token string) error {
	err := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&authdomain.DeviceToken{}).Error
	if err != nil {
		return pkgerrors.Wrap(err, "deviceTokenRepo.DeleteToken")
	}
	return nil
}

// PruneTokens hard-deletes tokens the push backend reported invalid. Tokens
// that are already gone are ignored.
func (r *deviceTokenRepository) PruneTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Unscoped().
		Where("token IN ?", tokens).
		Delete(&authdomain.DeviceToken{}).Error
	if err != nil {
		return pkgerrors.Wrap(err, "deviceTokenRepo.PruneTokens")
	}
	return nil
}

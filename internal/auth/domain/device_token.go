package domain

import (
	"time"

	"gorm.io/gorm"
)

// DeviceToken is a push notification handle for one of a user's devices
type DeviceToken struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"index;not null"`
	Token      string         `json:"-" gorm:"uniqueIndex;not null"` // Don't expose token in JSON
	Platform   string         `json:"platform"`                      // android, ios, web
	DeviceInfo string         `json:"device_info"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

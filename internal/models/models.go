package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProviderLocal     = "local"
	ProviderMicrosoft = "microsoft"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Username is unique per provider; Microsoft accounts use their
	// sign-in name.
	Username string `gorm:"uniqueIndex:idx_users_provider_username;not null" json:"username"`
	Provider string `gorm:"uniqueIndex:idx_users_provider_username;not null;default:'local'" json:"provider"`

	// Email receives link-processing notifications.
	Email        string `gorm:"index" json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	ExternalID   string `gorm:"index" json:"-"`
}

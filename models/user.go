package models

import (
	"time"
)

type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	FirstName    string `gorm:"size:255" json:"first_name"`
	LastName     string `gorm:"size:255" json:"last_name"`
	IsStaff      bool   `gorm:"not null;default:false" json:"is_staff"`

	LastLoginAt *time.Time `gorm:"index" json:"last_login_at,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"last_seen_at,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"login_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "lib_users"
}

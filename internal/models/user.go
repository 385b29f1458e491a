package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account that can hold realtime sessions.
type User struct {
	ID           string `gorm:"type:varchar(36);primaryKey"`
	Username     string `gorm:"size:20;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// RevokedToken marks a token identifier that is no longer honored.
// Rows are only ever inserted.
type RevokedToken struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	JTI       string `gorm:"column:jti;size:64;uniqueIndex;not null"`
	RevokedAt time.Time
}

func (r *RevokedToken) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RevokedAt.IsZero() {
		r.RevokedAt = time.Now().UTC()
	}
	return nil
}

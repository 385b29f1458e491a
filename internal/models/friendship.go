package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus is the lifecycle state of a friend request.
type RequestStatus string

const (
	// RequestPending is the only non-terminal state.
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
	RequestCanceled RequestStatus = "canceled"
)

// Terminal reports whether no further response may be applied.
func (s RequestStatus) Terminal() bool {
	return s == RequestAccepted || s == RequestRejected || s == RequestCanceled
}

// FriendRequest is a directed request from one user to another.
type FriendRequest struct {
	ID         string        `gorm:"type:varchar(36);primaryKey"`
	FromUserID string        `gorm:"type:varchar(36);not null;index:idx_request_pair"`
	ToUserID   string        `gorm:"type:varchar(36);not null;index:idx_request_pair;index"`
	Status     RequestStatus `gorm:"type:varchar(10);not null;default:'pending'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	FromUser User `gorm:"foreignKey:FromUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ToUser   User `gorm:"foreignKey:ToUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (r *FriendRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = RequestPending
	}
	return nil
}

// Friendship is one direction of a symmetric friendship. Both directions
// are always written together.
// The primary key is a composite of (UserID, FriendID) to ensure uniqueness.
type Friendship struct {
	UserID    string `gorm:"type:varchar(36);primaryKey"`
	FriendID  string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt time.Time

	User   User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Friend User `gorm:"foreignKey:FriendID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

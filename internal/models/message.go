package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageStatus is the delivery status of a direct message.
type MessageStatus string

const (
	MessageSent     MessageStatus = "sent"
	MessageReceived MessageStatus = "received"
	MessageRead     MessageStatus = "read"
)

// Rank orders statuses. A transition is valid only if it increases the rank.
func (s MessageStatus) Rank() int {
	switch s {
	case MessageSent:
		return 1
	case MessageReceived:
		return 2
	case MessageRead:
		return 3
	default:
		return 0
	}
}

// Message represents a direct message between two friends.
// At least one of Content and MediaRef is set.
type Message struct {
	ID          string        `gorm:"type:varchar(36);primaryKey"`
	SenderID    string        `gorm:"type:varchar(36);not null;index:idx_conversation,priority:1"`
	RecipientID string        `gorm:"type:varchar(36);not null;index:idx_conversation,priority:2"`
	Content     *string       `gorm:"type:text"`
	MediaRef    *string       `gorm:"size:400"`
	Status      MessageStatus `gorm:"type:varchar(10);not null;default:'sent';index"`
	CreatedAt   time.Time     `gorm:"index:idx_conversation,priority:3"`
	UpdatedAt   time.Time

	Sender    User `gorm:"foreignKey:SenderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Recipient User `gorm:"foreignKey:RecipientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MessageSent
	}
	return nil
}

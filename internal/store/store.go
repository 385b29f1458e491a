// Package store is the durable persistence boundary for users, revocations,
// friend requests, friendships and messages.
package store

import (
	"context"
	"errors"
	"time"

	"chatline/backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("store: duplicate record")
)

// RequestFilter selects friend requests. Empty fields are not filtered on.
type RequestFilter struct {
	FromUserID string
	ToUserID   string
	Status     models.RequestStatus
}

// Advance describes a catch-up status update over one conversation
// direction: every message from SenderID to RecipientID created at or
// before UpTo whose status is in From moves to To.
type Advance struct {
	SenderID    string
	RecipientID string
	UpTo        time.Time
	From        []models.MessageStatus
	To          models.MessageStatus
}

// Store is the narrow persistence interface consumed by the core.
//
// Inside Transaction, UserByID, FriendRequestByID and MessageByID lock the
// returned row until the transaction ends.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	SearchUsers(ctx context.Context, query, excludeID string, limit int) ([]models.User, error)

	RevokeToken(ctx context.Context, jti string) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)

	CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error
	FriendRequestByID(ctx context.Context, id string) (*models.FriendRequest, error)
	PendingRequest(ctx context.Context, fromUserID, toUserID string) (*models.FriendRequest, error)
	SetFriendRequestStatus(ctx context.Context, id string, status models.RequestStatus) error
	ListFriendRequests(ctx context.Context, filter RequestFilter) ([]models.FriendRequest, error)

	// CreateFriendship writes both directions; existing rows are kept.
	CreateFriendship(ctx context.Context, userID, friendID string) error
	AreFriends(ctx context.Context, userID, friendID string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]models.User, error)

	CreateMessage(ctx context.Context, msg *models.Message) error
	MessageByID(ctx context.Context, id string) (*models.Message, error)
	AdvanceMessages(ctx context.Context, adv Advance) (int64, error)
	Conversation(ctx context.Context, userID, otherID string) ([]models.Message, error)
}

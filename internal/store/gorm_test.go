package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatline/backend/internal/database"
	"chatline/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Gorm {
	t.Helper()
	db, err := database.Connect("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	return New(db)
}

func mustUser(t *testing.T, s *Gorm, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "x"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func text(s string) *string { return &s }

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := mustUser(t, s, "alice")
	mustUser(t, s, "alicia")
	mustUser(t, s, "bob")

	err := s.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := s.UserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = s.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	byName, err := s.UserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", byName.Username)

	found, err := s.SearchUsers(ctx, "ali", alice.ID, 50)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alicia", found[0].Username)

	found, err = s.SearchUsers(ctx, "%", "", 50)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRevokeTokenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	revoked, err := s.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.RevokeToken(ctx, "jti-1"))
	require.NoError(t, s.RevokeToken(ctx, "jti-1"))

	revoked, err = s.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestFriendRequests(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	req := &models.FriendRequest{FromUserID: alice.ID, ToUserID: bob.ID}
	require.NoError(t, s.CreateFriendRequest(ctx, req))
	assert.Equal(t, models.RequestPending, req.Status)

	pending, err := s.PendingRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, pending.ID)

	_, err = s.PendingRequest(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	incoming, err := s.ListFriendRequests(ctx, RequestFilter{ToUserID: bob.ID, Status: models.RequestPending})
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "alice", incoming[0].FromUser.Username)
	assert.Equal(t, "bob", incoming[0].ToUser.Username)

	require.NoError(t, s.SetFriendRequestStatus(ctx, req.ID, models.RequestRejected))
	got, err := s.FriendRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, got.Status)

	incoming, err = s.ListFriendRequests(ctx, RequestFilter{ToUserID: bob.ID, Status: models.RequestPending})
	require.NoError(t, err)
	assert.Empty(t, incoming)

	assert.ErrorIs(t, s.SetFriendRequestStatus(ctx, "missing", models.RequestCanceled), ErrNotFound)
}

func TestFriendshipIsSymmetric(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	require.NoError(t, s.CreateFriendship(ctx, alice.ID, bob.ID))

	ab, err := s.AreFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	ba, err := s.AreFriends(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ab)
	assert.True(t, ba)

	friends, err := s.ListFriends(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, alice.ID, friends[0].ID)

}

func TestCreateFriendshipTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	require.NoError(t, s.CreateFriendship(ctx, alice.ID, bob.ID))
	require.NoError(t, s.CreateFriendship(ctx, alice.ID, bob.ID))
	require.NoError(t, s.CreateFriendship(ctx, bob.ID, alice.ID))

	friends, err := s.ListFriends(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, friends, 1)
	friends, err = s.ListFriends(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, friends, 1)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx Store) error {
		if err := tx.CreateFriendship(ctx, alice.ID, bob.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, err := s.AreFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdvanceMessagesCatchUp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	x := mustUser(t, s, "x")
	y := mustUser(t, s, "y")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	newMsg := func(from, to *models.User, offset int, status models.MessageStatus) *models.Message {
		m := &models.Message{
			SenderID:    from.ID,
			RecipientID: to.ID,
			Content:     text("hi"),
			Status:      status,
			CreatedAt:   base.Add(time.Duration(offset) * time.Second),
		}
		require.NoError(t, s.CreateMessage(ctx, m))
		return m
	}

	m1 := newMsg(x, y, 1, models.MessageSent)
	m2 := newMsg(x, y, 2, models.MessageRead)
	m3 := newMsg(x, y, 3, models.MessageSent)
	m4 := newMsg(x, y, 4, models.MessageSent)
	reverse := newMsg(y, x, 2, models.MessageSent)

	n, err := s.AdvanceMessages(ctx, Advance{
		SenderID:    x.ID,
		RecipientID: y.ID,
		UpTo:        m3.CreatedAt,
		From:        []models.MessageStatus{models.MessageSent},
		To:          models.MessageReceived,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	status := func(m *models.Message) models.MessageStatus {
		got, err := s.MessageByID(ctx, m.ID)
		require.NoError(t, err)
		return got.Status
	}
	assert.Equal(t, models.MessageReceived, status(m1))
	assert.Equal(t, models.MessageRead, status(m2))
	assert.Equal(t, models.MessageReceived, status(m3))
	assert.Equal(t, models.MessageSent, status(m4))
	assert.Equal(t, models.MessageSent, status(reverse))
}

func TestConversationOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	x := mustUser(t, s, "x")
	y := mustUser(t, s, "y")
	z := mustUser(t, s, "z")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, pair := range [][2]*models.User{{y, x}, {x, y}, {x, z}, {y, x}} {
		require.NoError(t, s.CreateMessage(ctx, &models.Message{
			SenderID:    pair[0].ID,
			RecipientID: pair[1].ID,
			Content:     text("m"),
			CreatedAt:   base.Add(time.Duration(10-i) * time.Second),
		}))
	}

	msgs, err := s.Conversation(ctx, x.ID, y.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i := 1; i < len(msgs); i++ {
		assert.True(t, msgs[i-1].CreatedAt.Before(msgs[i].CreatedAt))
	}
	assert.NotEmpty(t, msgs[0].Sender.Username)
}

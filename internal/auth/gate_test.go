package auth

import (
	"context"
	"testing"
	"time"

	"chatline/backend/internal/database"
	"chatline/backend/internal/models"
	"chatline/backend/internal/store"
	"chatline/backend/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type gateFixture struct {
	gate   *Gate
	tokens *jwt.Service
	store  *store.Gorm
	user   *models.User
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	db, err := database.Connect("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	st := store.New(db)

	user := &models.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, st.CreateUser(context.Background(), user))

	tokens := jwt.NewService("secret", time.Hour)
	return &gateFixture{
		gate:   NewGate(tokens, st, NewStoreRevocations(st), zap.NewNop()),
		tokens: tokens,
		store:  st,
		user:   user,
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	f := newGateFixture(t)
	token, err := f.tokens.GenerateToken(f.user.ID)
	require.NoError(t, err)

	identity, err := f.gate.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, identity.UserID)
	assert.Equal(t, "alice", identity.Username)
	assert.NotEmpty(t, identity.JTI)
}

func TestAuthenticateFailures(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	expiredSvc := jwt.NewService("secret", -time.Minute)
	expired, err := expiredSvc.GenerateToken(f.user.ID)
	require.NoError(t, err)

	ghost, err := f.tokens.GenerateToken("no-such-user")
	require.NoError(t, err)

	revoked, err := f.tokens.GenerateToken(f.user.ID)
	require.NoError(t, err)
	claims, err := f.tokens.Decode(revoked)
	require.NoError(t, err)
	require.NoError(t, f.gate.Revoke(ctx, claims.JTI))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMalformed},
		{"garbage", "abc.def.ghi", ErrMalformed},
		{"expired", expired, ErrExpired},
		{"revoked", revoked, ErrRevoked},
		{"unknown user", ghost, ErrUnknownUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.gate.Authenticate(ctx, tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	require.NoError(t, f.gate.Revoke(ctx, "jti-1"))
	require.NoError(t, f.gate.Revoke(ctx, "jti-1"))

	revoked, err := f.store.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

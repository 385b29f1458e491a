package auth

import (
	"context"
	"errors"
	"time"

	"chatline/backend/internal/apperr"
	"chatline/backend/internal/metrics"
	"chatline/backend/internal/models"
	"chatline/backend/internal/store"
	"chatline/backend/pkg/jwt"

	"go.uber.org/zap"
)

var (
	ErrMalformed   = apperr.New(apperr.KindAuth, "token_malformed", "invalid token")
	ErrExpired     = apperr.New(apperr.KindAuth, "token_expired", "token expired")
	ErrRevoked     = apperr.New(apperr.KindAuth, "token_revoked", "token revoked")
	ErrUnknownUser = apperr.New(apperr.KindAuth, "unknown_user", "user not found")
)

// Identity is the result of a successful authentication.
type Identity struct {
	UserID    string
	Username  string
	JTI       string
	ExpiresAt time.Time
}

// TokenDecoder verifies a token and extracts its claims.
type TokenDecoder interface {
	Decode(token string) (*jwt.Claims, error)
}

// UserLookup resolves a user identity.
type UserLookup interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// Gate validates tokens on connect and on every realtime action.
type Gate struct {
	tokens  TokenDecoder
	users   UserLookup
	revoked Revocations
	log     *zap.Logger
}

// NewGate creates an auth gate.
func NewGate(tokens TokenDecoder, users UserLookup, revoked Revocations, log *zap.Logger) *Gate {
	return &Gate{
		tokens:  tokens,
		users:   users,
		revoked: revoked,
		log:     log.With(zap.String("component", "auth")),
	}
}

// Authenticate checks signature, expiry, revocation and user existence, in
// that order.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, g.reject(ErrMalformed)
	}

	claims, err := g.tokens.Decode(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, g.reject(ErrExpired)
		}
		return nil, g.reject(ErrMalformed)
	}

	revoked, err := g.revoked.IsRevoked(ctx, claims.JTI)
	if err != nil {
		g.log.Error("revocation lookup failed", zap.Error(err))
		return nil, apperr.Internal(err)
	}
	if revoked {
		return nil, g.reject(ErrRevoked)
	}

	user, err := g.users.UserByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, g.reject(ErrUnknownUser)
	}
	if err != nil {
		g.log.Error("user lookup failed", zap.Error(err))
		return nil, apperr.Internal(err)
	}

	return &Identity{
		UserID:    user.ID,
		Username:  user.Username,
		JTI:       claims.JTI,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Revoke marks jti as no longer honored. Revoking twice is not an error.
func (g *Gate) Revoke(ctx context.Context, jti string) error {
	if err := g.revoked.Revoke(ctx, jti); err != nil {
		g.log.Error("revoke failed", zap.String("jti", jti), zap.Error(err))
		return apperr.Internal(err)
	}
	return nil
}

func (g *Gate) reject(err *apperr.Error) error {
	metrics.AuthFailures.WithLabelValues(err.Code).Inc()
	g.log.Debug("token rejected", zap.String("reason", err.Code))
	return err
}

// Package account owns credentials: signup, login and user search.
package account

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"chatline/backend/internal/apperr"
	"chatline/backend/internal/models"
	"chatline/backend/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	MaxUsernameLen = 20
	SearchLimit    = 50
)

var (
	ErrMissingCredentials = apperr.New(apperr.KindValidation, "missing_credentials", "username and password required")
	ErrInvalidUsername    = apperr.New(apperr.KindValidation, "invalid_username", "username must be 1 to 20 characters")
	ErrUsernameTaken      = apperr.New(apperr.KindStateConflict, "username_taken", "username already exists")
	ErrInvalidCredentials = apperr.New(apperr.KindAuth, "invalid_credentials", "invalid credentials")
)

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Service manages user credentials.
type Service struct {
	store  store.Store
	tokens TokenIssuer
	log    *zap.Logger
	cost   int
}

// NewService creates an account service.
func NewService(st store.Store, tokens TokenIssuer, log *zap.Logger) *Service {
	return &Service{
		store:  st,
		tokens: tokens,
		log:    log.With(zap.String("component", "account")),
		cost:   bcrypt.DefaultCost,
	}
}

// Signup creates a user with a bcrypt-hashed password.
func (s *Service) Signup(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return nil, ErrInvalidUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		s.log.Error("hash password", zap.Error(err))
		return nil, apperr.Internal(err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash)}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		s.log.Error("create user", zap.Error(err))
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// Login verifies credentials and issues a new token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrMissingCredentials
	}

	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		s.log.Error("user by username", zap.Error(err))
		return "", nil, apperr.Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		s.log.Error("generate token", zap.Error(err))
		return "", nil, apperr.Internal(err)
	}
	return token, user, nil
}

// Search finds users whose name contains query, excluding the viewer.
// A blank query matches nobody.
func (s *Service) Search(ctx context.Context, query, viewerID string) ([]UserSummary, error) {
	out := []UserSummary{}
	query = strings.TrimSpace(query)
	if query == "" {
		return out, nil
	}

	users, err := s.store.SearchUsers(ctx, query, viewerID, SearchLimit)
	if err != nil {
		s.log.Error("search users", zap.Error(err))
		return nil, apperr.Internal(err)
	}
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Username: u.Username})
	}
	return out, nil
}

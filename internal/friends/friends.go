// Package friends implements the friend request workflow: send, respond,
// cancel, and the listings built on top of it.
package friends

import (
	"context"
	"errors"
	"slices"
	"time"

	"chatline/backend/internal/apperr"
	"chatline/backend/internal/hub"
	"chatline/backend/internal/models"
	"chatline/backend/internal/store"

	"go.uber.org/zap"
)

var (
	ErrMissingField     = apperr.New(apperr.KindValidation, "missing_field", "to_user_id is required")
	ErrSelfFriend       = apperr.New(apperr.KindValidation, "self_friend", "cannot friend yourself")
	ErrInvalidAction    = apperr.New(apperr.KindValidation, "invalid_action", "action must be 'accept' or 'reject'")
	ErrAlreadyFriends   = apperr.New(apperr.KindStateConflict, "already_friends", "already friends")
	ErrDuplicatePending = apperr.New(apperr.KindStateConflict, "duplicate_pending", "friend request already sent")
	ErrAlreadyHandled   = apperr.New(apperr.KindStateConflict, "already_handled", "friend request already handled")
	ErrNotFound         = apperr.New(apperr.KindNotFound, "request_not_found", "friend request not found")
	ErrUserNotFound     = apperr.New(apperr.KindNotFound, "user_not_found", "user not found")
)

// Action is a response to a pending request.
type Action string

const (
	Accept Action = "accept"
	Reject Action = "reject"
)

// Notifier pushes events to every live session of the given users.
type Notifier interface {
	DeliverEach(userIDs []string, event hub.Event) int
}

// Event payloads.
type (
	NewRequestPayload struct {
		RequestID    string `json:"request_id"`
		FromUserID   string `json:"from_user_id"`
		FromUsername string `json:"from_username"`
		ToUserID     string `json:"to_user_id"`
		ToUsername   string `json:"to_username"`
	}

	ResponsePayload struct {
		RequestID   string `json:"request_id"`
		ResponderID string `json:"responder_id"`
	}

	CancelPayload struct {
		RequestID  string `json:"request_id"`
		CancelerID string `json:"canceler_id"`
	}
)

// IncomingRequest is a pending request addressed to the viewer.
type IncomingRequest struct {
	RequestID    string    `json:"request_id"`
	FromUserID   string    `json:"from_user_id"`
	FromUsername string    `json:"from_username"`
	CreatedAt    time.Time `json:"created_at"`
}

// SentRequest is a pending request sent by the viewer.
type SentRequest struct {
	RequestID  string    `json:"request_id"`
	ToUserID   string    `json:"to_user_id"`
	ToUsername string    `json:"to_username"`
	CreatedAt  time.Time `json:"created_at"`
}

// Friend is one entry of a friend list.
type Friend struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Service runs the friend request workflow. Every state change commits
// before its event is delivered.
type Service struct {
	store    store.Store
	notifier Notifier
	log      *zap.Logger
}

// NewService creates a friend workflow service.
func NewService(st store.Store, notifier Notifier, log *zap.Logger) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
		log:      log.With(zap.String("component", "friends")),
	}
}

// SendRequest creates a pending request from one user to another and
// notifies both of them.
func (s *Service) SendRequest(ctx context.Context, fromUserID, toUserID string) (*models.FriendRequest, error) {
	if toUserID == "" {
		return nil, s.fail("send request", ErrMissingField)
	}
	if fromUserID == toUserID {
		return nil, s.fail("send request", ErrSelfFriend)
	}

	var (
		req      *models.FriendRequest
		from, to *models.User
	)
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		// Both user rows are locked, lower id first, so the pending check
		// below cannot race with another insert and crossed sends cannot
		// deadlock.
		users, err := lockPair(ctx, tx, fromUserID, toUserID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		from, to = users[fromUserID], users[toUserID]

		friends, err := tx.AreFriends(ctx, fromUserID, toUserID)
		if err != nil {
			return err
		}
		if friends {
			return ErrAlreadyFriends
		}

		_, err = tx.PendingRequest(ctx, fromUserID, toUserID)
		switch {
		case err == nil:
			return ErrDuplicatePending
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		req = &models.FriendRequest{FromUserID: fromUserID, ToUserID: toUserID}
		return tx.CreateFriendRequest(ctx, req)
	})
	if err != nil {
		return nil, s.fail("send request", err)
	}

	s.notifier.DeliverEach([]string{toUserID, fromUserID}, hub.Event{
		Name: hub.EventNewRequest,
		Data: NewRequestPayload{
			RequestID:    req.ID,
			FromUserID:   from.ID,
			FromUsername: from.Username,
			ToUserID:     to.ID,
			ToUsername:   to.Username,
		},
	})
	return req, nil
}

// Respond accepts or rejects a pending request on behalf of its addressee.
// Accepting writes both friendship directions in the same transaction as
// the status change.
func (s *Service) Respond(ctx context.Context, requestID, responderID string, action Action) (*models.FriendRequest, error) {
	if action != Accept && action != Reject {
		return nil, s.fail("respond", ErrInvalidAction)
	}

	var req *models.FriendRequest
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		if req, err = tx.FriendRequestByID(ctx, requestID); err != nil {
			return notFoundAs(err, ErrNotFound)
		}
		if req.Status == models.RequestCanceled || req.ToUserID != responderID {
			return ErrNotFound
		}
		if req.Status.Terminal() {
			return ErrAlreadyHandled
		}

		req.Status = models.RequestRejected
		if action == Accept {
			req.Status = models.RequestAccepted
			// Insert-if-absent: a crossed request may already have made them friends.
			if err := tx.CreateFriendship(ctx, req.FromUserID, req.ToUserID); err != nil {
				return err
			}
		}
		return tx.SetFriendRequestStatus(ctx, req.ID, req.Status)
	})
	if err != nil {
		return nil, s.fail("respond", err)
	}

	name := hub.EventRequestRejected
	if action == Accept {
		name = hub.EventRequestAccepted
	}
	s.notifier.DeliverEach([]string{req.FromUserID, req.ToUserID}, hub.Event{
		Name: name,
		Data: ResponsePayload{RequestID: req.ID, ResponderID: req.ToUserID},
	})
	return req, nil
}

// Cancel marks a request canceled on behalf of its sender. Only the sender
// check guards it, so an already handled request can be canceled too.
func (s *Service) Cancel(ctx context.Context, requestID, cancelerID string) (*models.FriendRequest, error) {
	var req *models.FriendRequest
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		if req, err = tx.FriendRequestByID(ctx, requestID); err != nil {
			return notFoundAs(err, ErrNotFound)
		}
		if req.FromUserID != cancelerID {
			return ErrNotFound
		}
		req.Status = models.RequestCanceled
		return tx.SetFriendRequestStatus(ctx, req.ID, req.Status)
	})
	if err != nil {
		return nil, s.fail("cancel", err)
	}

	s.notifier.DeliverEach([]string{req.ToUserID, req.FromUserID}, hub.Event{
		Name: hub.EventRequestCanceled,
		Data: CancelPayload{RequestID: req.ID, CancelerID: cancelerID},
	})
	return req, nil
}

// Incoming lists pending requests addressed to userID, oldest first.
func (s *Service) Incoming(ctx context.Context, userID string) ([]IncomingRequest, error) {
	reqs, err := s.store.ListFriendRequests(ctx, store.RequestFilter{ToUserID: userID, Status: models.RequestPending})
	if err != nil {
		return nil, s.fail("incoming requests", err)
	}
	out := make([]IncomingRequest, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, IncomingRequest{
			RequestID:    r.ID,
			FromUserID:   r.FromUserID,
			FromUsername: r.FromUser.Username,
			CreatedAt:    r.CreatedAt,
		})
	}
	return out, nil
}

// Sent lists pending requests sent by userID, oldest first.
func (s *Service) Sent(ctx context.Context, userID string) ([]SentRequest, error) {
	reqs, err := s.store.ListFriendRequests(ctx, store.RequestFilter{FromUserID: userID, Status: models.RequestPending})
	if err != nil {
		return nil, s.fail("sent requests", err)
	}
	out := make([]SentRequest, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, SentRequest{
			RequestID:  r.ID,
			ToUserID:   r.ToUserID,
			ToUsername: r.ToUser.Username,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

// List returns the friends of userID.
func (s *Service) List(ctx context.Context, userID string) ([]Friend, error) {
	users, err := s.store.ListFriends(ctx, userID)
	if err != nil {
		return nil, s.fail("list friends", err)
	}
	out := make([]Friend, 0, len(users))
	for _, u := range users {
		out = append(out, Friend{ID: u.ID, Username: u.Username})
	}
	return out, nil
}

// AreFriends reports whether a friendship edge exists between the users.
func (s *Service) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	ok, err := s.store.AreFriends(ctx, userID, otherID)
	if err != nil {
		return false, s.fail("are friends", err)
	}
	return ok, nil
}

// lockPair loads and locks two users in ascending id order.
func lockPair(ctx context.Context, tx store.Store, a, b string) (map[string]*models.User, error) {
	ids := []string{a, b}
	slices.Sort(ids)
	users := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		u, err := tx.UserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		users[id] = u
	}
	return users, nil
}

func notFoundAs(err, target error) error {
	if errors.Is(err, store.ErrNotFound) {
		return target
	}
	return err
}

// fail classifies err and logs it at a level matching its kind.
func (s *Service) fail(op string, err error) error {
	err = apperr.Internal(err)
	if apperr.KindOf(err) == apperr.KindInternal {
		s.log.Error(op+" failed", zap.Error(err))
	} else {
		s.log.Debug(op+" rejected", zap.Error(err))
	}
	return err
}

// Package messaging sends direct messages between friends and drives the
// sent -> received -> read status machine.
package messaging

import (
	"context"
	"errors"
	"strings"
	"time"

	"chatline/backend/internal/apperr"
	"chatline/backend/internal/blob"
	"chatline/backend/internal/hub"
	"chatline/backend/internal/metrics"
	"chatline/backend/internal/models"
	"chatline/backend/internal/store"

	"go.uber.org/zap"
)

var (
	ErrMissingRecipient = apperr.New(apperr.KindValidation, "missing_recipient", "recipient_id required")
	ErrMissingMessageID = apperr.New(apperr.KindValidation, "missing_message_id", "no message_id provided")
	ErrEmptyMessage     = apperr.New(apperr.KindValidation, "empty_message", "message must have content or image")
	ErrInvalidMedia     = apperr.New(apperr.KindValidation, "invalid_media", "invalid image data")
	ErrNotFriends       = apperr.New(apperr.KindForbidden, "not_friends", "you are not friends with this user")
	ErrForbidden        = apperr.New(apperr.KindForbidden, "not_recipient", "only the recipient may acknowledge a message")
	ErrNotFound         = apperr.New(apperr.KindNotFound, "message_not_found", "message not found")
	ErrInvalidState     = apperr.New(apperr.KindStateConflict, "invalid_state", "unexpected notification")
)

// Notifier pushes events to the live sessions of users.
type Notifier interface {
	Deliver(userID string, event hub.Event) int
	DeliverEach(userIDs []string, event hub.Event) int
}

// SendInput is a message submitted by SenderID.
type SendInput struct {
	SenderID    string
	RecipientID string
	Content     *string
	// ImageB64 is raw base64 or a data URL.
	ImageB64 string
	Filename string
}

// MessageView is the client-facing form of a message, used both for the
// new_message event and for history.
type MessageView struct {
	ID             string               `json:"id"`
	SenderID       string               `json:"sender_id"`
	RecipientID    string               `json:"recipient_id"`
	SenderUsername string               `json:"sender_username"`
	Content        *string              `json:"content"`
	ImageURL       *string              `json:"image_url"`
	Status         models.MessageStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
}

// StatusPayload is the data of he_received_message and he_read_message.
type StatusPayload struct {
	MessageID string `json:"message_id"`
}

// Service implements message send, acknowledgement and history.
type Service struct {
	store    store.Store
	blobs    blob.Store
	notifier Notifier
	log      *zap.Logger
}

// NewService creates a messaging service.
func NewService(st store.Store, blobs blob.Store, notifier Notifier, log *zap.Logger) *Service {
	return &Service{
		store:    st,
		blobs:    blobs,
		notifier: notifier,
		log:      log.With(zap.String("component", "messaging")),
	}
}

// Send persists a message at status sent and delivers new_message to both
// the recipient and the sender.
func (s *Service) Send(ctx context.Context, in SendInput) (*MessageView, error) {
	if in.RecipientID == "" {
		return nil, s.fail("send", ErrMissingRecipient)
	}

	friends, err := s.store.AreFriends(ctx, in.SenderID, in.RecipientID)
	if err != nil {
		return nil, s.fail("send", err)
	}
	if !friends {
		return nil, s.fail("send", ErrNotFriends)
	}

	var content *string
	if in.Content != nil {
		if trimmed := strings.TrimSpace(*in.Content); trimmed != "" {
			content = &trimmed
		}
	}
	if content == nil && in.ImageB64 == "" {
		return nil, s.fail("send", ErrEmptyMessage)
	}

	var mediaRef *string
	if in.ImageB64 != "" {
		data, ext, err := blob.DecodeInline(in.ImageB64, in.Filename)
		if err != nil {
			return nil, s.fail("send", ErrInvalidMedia)
		}
		ref, err := s.blobs.Put(ctx, data, ext)
		if err != nil {
			return nil, s.fail("store media", err)
		}
		mediaRef = &ref
	}

	msg := &models.Message{
		SenderID:    in.SenderID,
		RecipientID: in.RecipientID,
		Content:     content,
		MediaRef:    mediaRef,
		Status:      models.MessageSent,
	}
	var sender *models.User
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		if sender, err = tx.UserByID(ctx, in.SenderID); err != nil {
			return err
		}
		return tx.CreateMessage(ctx, msg)
	})
	if err != nil {
		if mediaRef != nil {
			s.discardMedia(*mediaRef)
		}
		return nil, s.fail("send", err)
	}
	msg.Sender = *sender

	view := s.view(msg)
	s.notifier.DeliverEach([]string{msg.RecipientID, msg.SenderID}, hub.Event{
		Name: hub.EventNewMessage,
		Data: view,
	})
	return &view, nil
}

// MarkReceived acknowledges delivery of a message. Every earlier message of
// the same direction still at sent moves to received with it.
func (s *Service) MarkReceived(ctx context.Context, messageID, userID string) (int64, error) {
	return s.advance(ctx, "mark received", messageID, userID,
		[]models.MessageStatus{models.MessageSent}, models.MessageReceived, hub.EventHeReceivedMessage)
}

// MarkRead acknowledges that a message was read. Every earlier message of
// the same direction at sent or received moves to read with it.
func (s *Service) MarkRead(ctx context.Context, messageID, userID string) (int64, error) {
	return s.advance(ctx, "mark read", messageID, userID,
		[]models.MessageStatus{models.MessageSent, models.MessageReceived}, models.MessageRead, hub.EventHeReadMessage)
}

func (s *Service) advance(ctx context.Context, op, messageID, userID string, from []models.MessageStatus, to models.MessageStatus, event string) (int64, error) {
	if messageID == "" {
		return 0, s.fail(op, ErrMissingMessageID)
	}

	var (
		msg      *models.Message
		advanced int64
	)
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		// The row lock makes concurrent acknowledgements of the same message
		// run one after the other, so the status guard below sees the winner.
		if msg, err = tx.MessageByID(ctx, messageID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if msg.RecipientID != userID {
			return ErrForbidden
		}
		if msg.Status.Rank() >= to.Rank() {
			return ErrInvalidState
		}

		advanced, err = tx.AdvanceMessages(ctx, store.Advance{
			SenderID:    msg.SenderID,
			RecipientID: msg.RecipientID,
			UpTo:        msg.CreatedAt,
			From:        from,
			To:          to,
		})
		return err
	})
	if err != nil {
		return 0, s.fail(op, err)
	}

	metrics.StatusAdvances.WithLabelValues(string(to)).Add(float64(advanced))
	s.notifier.Deliver(msg.SenderID, hub.Event{
		Name: event,
		Data: StatusPayload{MessageID: msg.ID},
	})
	return advanced, nil
}

// History returns the conversation between userID and otherID in creation
// order. Only friends may read it.
func (s *Service) History(ctx context.Context, userID, otherID string) ([]MessageView, error) {
	friends, err := s.store.AreFriends(ctx, userID, otherID)
	if err != nil {
		return nil, s.fail("history", err)
	}
	if !friends {
		return nil, s.fail("history", ErrNotFriends)
	}

	msgs, err := s.store.Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, s.fail("history", err)
	}
	out := make([]MessageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, s.view(&msgs[i]))
	}
	return out, nil
}

// discardMedia removes media whose message was never persisted.
func (s *Service) discardMedia(ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.blobs.Delete(ctx, ref); err != nil {
		s.log.Warn("discard orphaned media", zap.String("ref", ref), zap.Error(err))
	}
}

func (s *Service) view(m *models.Message) MessageView {
	v := MessageView{
		ID:             m.ID,
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		SenderUsername: m.Sender.Username,
		Content:        m.Content,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
	}
	if m.MediaRef != nil {
		url, err := s.blobs.URLFor(*m.MediaRef)
		if err != nil {
			s.log.Warn("resolve media url", zap.String("message_id", m.ID), zap.Error(err))
		} else {
			v.ImageURL = &url
		}
	}
	return v
}

func (s *Service) fail(op string, err error) error {
	err = apperr.Internal(err)
	if apperr.KindOf(err) == apperr.KindInternal {
		s.log.Error(op+" failed", zap.Error(err))
	} else {
		s.log.Debug(op+" rejected", zap.Error(err))
	}
	return err
}

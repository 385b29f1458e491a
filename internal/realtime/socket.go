// Package realtime serves the WebSocket endpoint: the authenticated
// handshake, session registration and inbound action dispatch.
package realtime

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"chatline/backend/internal/apperr"
	"chatline/backend/internal/auth"
	"chatline/backend/internal/hub"
	"chatline/backend/internal/messaging"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Inbound actions.
const (
	ActionSendMessage     = "send_message"
	ActionReceivedMessage = "i_received_message"
	ActionReadMessage     = "i_read_message"
)

const (
	readTimeout     = 60 * time.Second
	readLimit       = 1 << 20
	inflightTimeout = 5 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrTokenMismatch is returned when a frame carries a valid token that
// belongs to someone other than the connection's user.
var ErrTokenMismatch = apperr.New(apperr.KindAuth, "token_mismatch", "token does not belong to this connection")

var (
	errBadFrame    = apperr.New(apperr.KindValidation, "bad_request", "invalid payload")
	errUnsupported = apperr.New(apperr.KindValidation, "unsupported_event", "unknown event")
)

// Authenticator validates access tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// Messenger is the messaging core driven by inbound actions.
type Messenger interface {
	Send(ctx context.Context, in messaging.SendInput) (*messaging.MessageView, error)
	MarkReceived(ctx context.Context, messageID, userID string) (int64, error)
	MarkRead(ctx context.Context, messageID, userID string) (int64, error)
}

type inboundFrame struct {
	Event string              `json:"event"`
	Token string              `json:"token,omitempty"`
	Data  jsoniter.RawMessage `json:"data"`
}

type sendMessageData struct {
	RecipientID string  `json:"recipient_id"`
	Content     *string `json:"content"`
	ImageB64    string  `json:"image_b64"`
	Filename    string  `json:"filename"`
}

type messageRefData struct {
	MessageID string `json:"message_id"`
}

// ConnectedPayload is sent once to a freshly registered connection.
type ConnectedPayload struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// AckPayload confirms a status acknowledgement to its caller.
type AckPayload struct {
	Action    string `json:"action"`
	MessageID string `json:"message_id"`
}

// ErrorPayload reports a rejected action to its caller only.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Socket handles the realtime endpoint.
type Socket struct {
	gate     Authenticator
	messages Messenger
	registry hub.Registry
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewSocket creates the WebSocket handler. allowedOrigins may contain "*".
func NewSocket(gate Authenticator, messages Messenger, registry hub.Registry, allowedOrigins []string, log *zap.Logger) *Socket {
	return &Socket{
		gate:     gate,
		messages: messages,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log.With(zap.String("component", "realtime")),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

// Handle godoc
// @Summary      Open a realtime session
// @Description  Upgrades to a WebSocket after validating the token query parameter.
// @Tags         realtime
// @Param        token  query  string  true  "Access token"
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  map[string]string
// @Router       /ws [get]
func (s *Socket) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		handshakeToken := c.Query("token")
		identity, err := s.gate.Authenticate(c.Request.Context(), handshakeToken)
		if err != nil {
			_, msg := apperr.Public(err)
			c.JSON(apperr.HTTPStatus(err), gin.H{"error": msg})
			return
		}

		ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			s.log.Debug("upgrade failed", zap.Error(err))
			return
		}

		conn := hub.NewConnection(identity.UserID, ws)
		conn.Start()
		// connected is queued before the handle becomes routable, so it is
		// always the first frame the client sees.
		s.reply(conn, hub.Event{
			Name: hub.EventConnected,
			Data: ConnectedPayload{Message: "connected", UserID: identity.UserID},
		})
		s.registry.Register(identity.UserID, conn)
		defer func() {
			s.registry.Unregister(conn)
			conn.Close()
		}()

		log := s.log.With(zap.String("user_id", identity.UserID), zap.String("handle_id", conn.ID()))
		log.Debug("session opened")

		ws.SetReadLimit(readLimit)
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(readTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					log.Debug("read failed", zap.Error(err))
				}
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				s.replyError(conn, errBadFrame)
				continue
			}
			if frame.Token == "" {
				frame.Token = handshakeToken
			}

			ctx, cancel := context.WithTimeout(c.Request.Context(), inflightTimeout)
			s.dispatch(ctx, conn, frame)
			cancel()
		}
	}
}

// dispatch re-authenticates the frame and runs its action. Each action ends
// in exactly one success event or one error event for the caller.
func (s *Socket) dispatch(ctx context.Context, conn *hub.Connection, frame inboundFrame) {
	identity, err := s.gate.Authenticate(ctx, frame.Token)
	if err != nil {
		s.replyError(conn, err)
		return
	}
	if identity.UserID != conn.UserID {
		s.replyError(conn, ErrTokenMismatch)
		return
	}

	switch frame.Event {
	case ActionSendMessage:
		var in sendMessageData
		if err := decodeData(frame.Data, &in); err != nil {
			s.replyError(conn, errBadFrame)
			return
		}
		// Success is the new_message fan-out, which reaches this
		// connection as one of the sender's sessions.
		_, err := s.messages.Send(ctx, messaging.SendInput{
			SenderID:    identity.UserID,
			RecipientID: in.RecipientID,
			Content:     in.Content,
			ImageB64:    in.ImageB64,
			Filename:    in.Filename,
		})
		if err != nil {
			s.replyError(conn, err)
		}

	case ActionReceivedMessage, ActionReadMessage:
		var in messageRefData
		if err := decodeData(frame.Data, &in); err != nil {
			s.replyError(conn, errBadFrame)
			return
		}
		mark := s.messages.MarkReceived
		if frame.Event == ActionReadMessage {
			mark = s.messages.MarkRead
		}
		if _, err := mark(ctx, in.MessageID, identity.UserID); err != nil {
			s.replyError(conn, err)
			return
		}
		s.reply(conn, hub.Event{
			Name: hub.EventAck,
			Data: AckPayload{Action: frame.Event, MessageID: in.MessageID},
		})

	default:
		s.replyError(conn, errUnsupported)
	}
}

func decodeData(raw jsoniter.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (s *Socket) replyError(conn *hub.Connection, err error) {
	code, msg := apperr.Public(err)
	s.reply(conn, hub.Event{Name: hub.EventError, Data: ErrorPayload{Message: msg, Code: code}})
}

// reply writes to this connection only.
func (s *Socket) reply(conn *hub.Connection, event hub.Event) {
	payload, err := event.Encode()
	if err != nil {
		s.log.Error("encode event", zap.String("event", event.Name), zap.Error(err))
		return
	}
	if err := conn.Send(payload); err != nil {
		s.log.Debug("reply dropped", zap.String("event", event.Name), zap.Error(err))
	}
}

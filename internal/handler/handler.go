package handler

import (
	"chatline/backend/internal/account"
	"chatline/backend/internal/apperr"
	"chatline/backend/internal/auth"
	"chatline/backend/internal/friends"
	"chatline/backend/internal/messaging"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// MessageResponse represents a plain confirmation.
type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

// Handler serves the HTTP API.
type Handler struct {
	accounts *account.Service
	friends  *friends.Service
	messages *messaging.Service
	gate     *auth.Gate
}

// New creates the HTTP handlers.
func New(accounts *account.Service, friendsSvc *friends.Service, messages *messaging.Service, gate *auth.Gate) *Handler {
	return &Handler{
		accounts: accounts,
		friends:  friendsSvc,
		messages: messages,
		gate:     gate,
	}
}

// RegisterRoutes mounts the API on group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	requireAuth := auth.AuthMiddleware(h.gate)

	// Auth routes
	authRoutes := group.Group("/auth")
	{
		authRoutes.POST("/signup", h.Signup)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/logout", requireAuth, h.Logout)
		authRoutes.GET("/check_token", requireAuth, h.CheckToken)
	}

	// User routes (protected)
	userRoutes := group.Group("/users")
	userRoutes.Use(requireAuth)
	{
		userRoutes.GET("/search", h.SearchUsers)
	}

	// Friendship routes (protected)
	friendRoutes := group.Group("/friends")
	friendRoutes.Use(requireAuth)
	{
		friendRoutes.POST("/send_request", h.SendRequest)
		friendRoutes.GET("/incoming_requests", h.IncomingRequests)
		friendRoutes.GET("/sent_requests", h.SentRequests)
		friendRoutes.POST("/respond", h.RespondRequest)
		friendRoutes.POST("/cancel_request", h.CancelRequest)
		friendRoutes.GET("/list", h.ListFriends)
	}

	// Message routes (protected)
	messageRoutes := group.Group("/messages")
	messageRoutes.Use(requireAuth)
	{
		messageRoutes.GET("/history/:other_user_id", h.History)
	}
}

// respondError writes err with the status its kind maps to. Internal
// details never reach the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	_, msg := apperr.Public(err)
	c.JSON(apperr.HTTPStatus(err), ErrorResponse{Error: msg})
}

package handler

import (
	"net/http"

	"chatline/backend/internal/auth"
	"chatline/backend/internal/friends"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// SendRequestInput names the addressee of a friend request.
type SendRequestInput struct {
	ToUserID string `json:"to_user_id" example:"4f9c8c1e-8d5e-4b8a-9a51-0c1f1f3f5a2b"`
}

// RespondInput answers a pending request.
type RespondInput struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action" example:"accept" enums:"accept,reject"`
}

// CancelInput names a request to cancel.
type CancelInput struct {
	RequestID string `json:"request_id"`
}

// RequestCreatedResponse is returned when a request is sent.
type RequestCreatedResponse struct {
	Message   string `json:"message" example:"friend request sent"`
	RequestID string `json:"request_id"`
}

// endregion

// SendRequest godoc
// @Summary      Send a friend request
// @Description  Creates a pending request and notifies both users' live sessions.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SendRequestInput true "Addressee"
// @Success      201  {object}  RequestCreatedResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Failure      409  {object}  ErrorResponse "Already friends or already pending"
// @Router       /friends/send_request [post]
func (h *Handler) SendRequest(c *gin.Context) {
	var input SendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	viewer := auth.CurrentIdentity(c)
	req, err := h.friends.SendRequest(c.Request.Context(), viewer.UserID, input.ToUserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, RequestCreatedResponse{Message: "friend request sent", RequestID: req.ID})
}

// IncomingRequests godoc
// @Summary      List incoming requests
// @Description  Pending requests addressed to the caller, oldest first.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   friends.IncomingRequest
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/incoming_requests [get]
func (h *Handler) IncomingRequests(c *gin.Context) {
	viewer := auth.CurrentIdentity(c)
	reqs, err := h.friends.Incoming(c.Request.Context(), viewer.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// SentRequests godoc
// @Summary      List sent requests
// @Description  Pending requests sent by the caller, oldest first.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   friends.SentRequest
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/sent_requests [get]
func (h *Handler) SentRequests(c *gin.Context) {
	viewer := auth.CurrentIdentity(c)
	reqs, err := h.friends.Sent(c.Request.Context(), viewer.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// RespondRequest godoc
// @Summary      Accept or reject a request
// @Description  Only the addressee may respond. Accepting makes both users friends.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RespondInput true "Response"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already handled"
// @Router       /friends/respond [post]
func (h *Handler) RespondRequest(c *gin.Context) {
	var input RespondInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	viewer := auth.CurrentIdentity(c)
	req, err := h.friends.Respond(c.Request.Context(), input.RequestID, viewer.UserID, friends.Action(input.Action))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "friend request " + string(req.Status)})
}

// CancelRequest godoc
// @Summary      Cancel a sent request
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CancelInput true "Request"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friends/cancel_request [post]
func (h *Handler) CancelRequest(c *gin.Context) {
	var input CancelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	viewer := auth.CurrentIdentity(c)
	if _, err := h.friends.Cancel(c.Request.Context(), input.RequestID, viewer.UserID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "friend request canceled"})
}

// ListFriends godoc
// @Summary      List friends
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   friends.Friend
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/list [get]
func (h *Handler) ListFriends(c *gin.Context) {
	viewer := auth.CurrentIdentity(c)
	list, err := h.friends.List(c.Request.Context(), viewer.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

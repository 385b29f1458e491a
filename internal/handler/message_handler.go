package handler

import (
	"net/http"

	"chatline/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// History godoc
// @Summary      Conversation history
// @Description  Messages between the caller and a friend, oldest first.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        other_user_id  path      string  true  "Friend's user ID"
// @Success      200  {array}   messaging.MessageView
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not friends"
// @Router       /messages/history/{other_user_id} [get]
func (h *Handler) History(c *gin.Context) {
	viewer := auth.CurrentIdentity(c)
	msgs, err := h.messages.History(c.Request.Context(), viewer.UserID, c.Param("other_user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

package handler

import (
	"net/http"

	"chatline/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// SearchUsers godoc
// @Summary      Search for users
// @Description  Finds up to 50 users whose username contains q. The caller is never included.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q  query     string  false  "Search query for username"
// @Success      200  {array}   account.UserSummary
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/search [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	viewer := auth.CurrentIdentity(c)
	users, err := h.accounts.Search(c.Request.Context(), c.Query("q"), viewer.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

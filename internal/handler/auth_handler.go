package handler

import (
	"net/http"

	"chatline/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// CredentialsInput is the body of signup and login.
type CredentialsInput struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"password123"`
}

// SignupResponse is returned when a user is created.
type SignupResponse struct {
	Message string `json:"message" example:"user created"`
	UserID  string `json:"user_id" example:"4f9c8c1e-8d5e-4b8a-9a51-0c1f1f3f5a2b"`
}

// LoginResponse carries a freshly issued token.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id" example:"4f9c8c1e-8d5e-4b8a-9a51-0c1f1f3f5a2b"`
}

// endregion

// Signup godoc
// @Summary      Register a new user
// @Description  Creates a user. The username is trimmed and must be 1 to 20 characters.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body CredentialsInput true "Signup Info"
// @Success      201  {object}  SignupResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.accounts.Signup(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SignupResponse{Message: "user created", UserID: user.ID})
}

// Login godoc
// @Summary      Log in a user
// @Description  Authenticates a user with username and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body CredentialsInput true "Login Info"
// @Success      200  {object}  LoginResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, user, err := h.accounts.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, UserID: user.ID})
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the presented token. It is refused everywhere afterwards, including open realtime sessions.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	identity := auth.CurrentIdentity(c)
	if err := h.gate.Revoke(c.Request.Context(), identity.JTI); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// CheckToken godoc
// @Summary      Validate a token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/check_token [get]
func (h *Handler) CheckToken(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "valid"})
}

package auth

import (
	"net/http"
	"strings"

	"chatline/backend/internal/apperr"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthMiddleware creates a gin middleware that requires a valid bearer token.
func AuthMiddleware(gate *Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be Bearer token"})
			return
		}

		identity, err := gate.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			_, msg := apperr.Public(err)
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": msg})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthMiddleware.
func CurrentIdentity(c *gin.Context) *Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*Identity)
	return identity
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newGateFixture(t)

	r := gin.New()
	r.GET("/me", AuthMiddleware(f.gate), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CurrentIdentity(c).UserID})
	})

	token, err := f.tokens.GenerateToken(f.user.ID)
	require.NoError(t, err)
	claims, err := f.tokens.Decode(token)
	require.NoError(t, err)

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do("Bearer " + token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), f.user.ID)

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer nope").Code)

	require.NoError(t, f.gate.Revoke(context.Background(), claims.JTI))
	rec = do("Bearer " + token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token revoked")
}

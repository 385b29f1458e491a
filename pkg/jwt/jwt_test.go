package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndDecode(t *testing.T) {
	svc := NewService("secret", time.Hour)

	token, err := svc.GenerateToken("user-1")
	require.NoError(t, err)

	claims, err := svc.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestTokensHaveDistinctJTI(t *testing.T) {
	svc := NewService("secret", time.Hour)
	a, err := svc.GenerateToken("u")
	require.NoError(t, err)
	b, err := svc.GenerateToken("u")
	require.NoError(t, err)

	ca, err := svc.Decode(a)
	require.NoError(t, err)
	cb, err := svc.Decode(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.JTI, cb.JTI)
}

func TestDecodeExpired(t *testing.T) {
	svc := NewService("secret", time.Hour)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.GenerateToken("u")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Decode(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDecodeMalformed(t *testing.T) {
	svc := NewService("secret", time.Hour)
	other := NewService("other-secret", time.Hour)

	forged, err := other.GenerateToken("u")
	require.NoError(t, err)

	noJTI, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "u",
		ID:      "j",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":  "not-a-token",
		"empty":    "",
		"forged":   forged,
		"no jti":   noJTI,
		"alg none": noneAlg,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Decode(token)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

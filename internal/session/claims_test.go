package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClaims(t *testing.T) {
	iat := time.Now().Add(-time.Minute).Truncate(time.Second)
	exp := iat.Add(30 * time.Minute)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "fan@stagelog.kr",
		"role": "ROLE_USER",
		"type": "access",
		"iat":  iat.Unix(),
		"exp":  exp.Unix(),
	}).SignedString([]byte("not-the-server-key"))
	require.NoError(t, err)

	claims, err := ParseClaims(signed)
	require.NoError(t, err)

	assert.Equal(t, "fan@stagelog.kr", claims.Subject)
	assert.Equal(t, "ROLE_USER", claims.Role)
	assert.Equal(t, "access", claims.Type)
	assert.True(t, claims.IssuedAt.Equal(iat))
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp.Add(time.Second)))

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseClaims("not.a.jwt")
		assert.Error(t, err)
	})

	t.Run("no exp never expires", func(t *testing.T) {
		assert.False(t, Claims{}.Expired(time.Now()))
	})
}

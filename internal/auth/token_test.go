package auth

import (
	"testing"
	"time"

	"jobcopilot/internal/config"
	"jobcopilot/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_DevToken(t *testing.T) {
	issuer := NewTokenIssuer(config.AuthConfig{})
	assert.False(t, issuer.Signed())

	token, err := issuer.Issue("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "local-dev-token", token)

	_, err = issuer.Verify(token)
	assert.True(t, errors.HasCode(err, ErrCodeInvalidToken))
}

func TestTokenIssuer_SignedRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(config.AuthConfig{JWTSecret: "s3cret", Issuer: "jobcopilot", TokenTTL: time.Hour})
	require.True(t, issuer.Signed())

	token, err := issuer.Issue("ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, DevToken, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "ada@example.com", claims.Subject)
	assert.Equal(t, "jobcopilot", claims.Issuer)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer(config.AuthConfig{JWTSecret: "s3cret", Issuer: "jobcopilot", TokenTTL: time.Hour})
	token, err := issuer.Issue("ada@example.com")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer(config.AuthConfig{JWTSecret: "different", Issuer: "jobcopilot"})
		_, err := other.Verify(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenIssuer(config.AuthConfig{JWTSecret: "s3cret", Issuer: "someone-else"})
		_, err := other.Verify(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenIssuer(config.AuthConfig{JWTSecret: "s3cret", Issuer: "jobcopilot"})
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.jwt")
		assert.Error(t, err)
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Issuer: "jobcopilot"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Verify(none)
		assert.Error(t, err)
	})
}

// Package auth issues and verifies login tokens.
package auth

import (
	"fmt"
	"time"

	"jobcopilot/internal/config"
	"jobcopilot/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

// DevToken is returned by the login stub when no signing secret is configured
const DevToken = "local-dev-token"

// TokenType is the OAuth-style token type reported on login
const TokenType = "bearer"

const ErrCodeInvalidToken = "INVALID_TOKEN"

// Claims are the JWT claims of an issued login token
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer hands out login tokens. Without a secret every login gets the
// fixed development token and no token can be verified.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer from configuration
func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Signed reports whether the issuer signs real JWTs
func (i *TokenIssuer) Signed() bool {
	return len(i.secret) > 0
}

// Issue returns a token for the given email
func (i *TokenIssuer) Issue(email string) (string, error) {
	if !i.Signed() {
		return DevToken, nil
	}

	now := i.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", errors.NewInternalError(ErrCodeInvalidToken, "failed to sign token", err)
	}
	return token, nil
}

// Verify parses and validates a token issued by Issue
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	if !i.Signed() {
		return nil, errors.NewValidationError(ErrCodeInvalidToken, "token verification is not configured", nil)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errors.NewValidationError(ErrCodeInvalidToken, "invalid or expired token", err)
	}
	return claims, nil
}

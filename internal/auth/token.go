package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind tags a credential as access or refresh via the "typ" claim,
// so an access token can never be replayed as a refresh token.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// TokenCodec signs and parses bearer credentials. Stateless: a pure
// function of the secret key and the clock.
type TokenCodec struct {
	secret []byte
	now    Clock
}

func NewTokenCodec(secret string, now Clock) *TokenCodec {
	if now == nil {
		now = SystemClock
	}
	return &TokenCodec{secret: []byte(secret), now: now}
}

func (c *TokenCodec) Issue(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	issuedAt := c.now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": issuedAt.Unix(),
		"exp": issuedAt.Add(ttl).Unix(),
		"typ": string(kind),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}

	return encoded, nil
}

// Verify returns the subject of a structurally valid, unexpired token of
// the given kind. Callers cannot distinguish failure reasons beyond
// ErrInvalidToken.
func (c *TokenCodec) Verify(tokenStr string, kind TokenKind) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if tokenType, _ := claims["typ"].(string); tokenType != string(kind) {
		return "", ErrInvalidToken
	}
	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", ErrInvalidToken
	}

	return subject, nil
}

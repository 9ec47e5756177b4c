// internals/helpers/auth/nonce.go
package helper

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidNonce = errors.New("invalid or expired nonce")

// DefaultNonceTTL matches the lifetime of a WordPress nonce.
const DefaultNonceTTL = 12 * time.Hour

// NonceClaims bind a token to one user and one action.
type NonceClaims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// IssueNonce signs an anti-forgery token for (userID, action).
func IssueNonce(secret, userID, action string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("nonce secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultNonceTTL
	}
	now := time.Now()
	claims := NonceClaims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyNonce checks signature, expiry, user and action.
func VerifyNonce(secret, token, userID, action string) error {
	token = strings.TrimSpace(token)
	if token == "" || secret == "" {
		return ErrInvalidNonce
	}
	claims := &NonceClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidNonce
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return ErrInvalidNonce
	}
	if claims.Subject != userID || claims.Action != action {
		return ErrInvalidNonce
	}
	return nil
}

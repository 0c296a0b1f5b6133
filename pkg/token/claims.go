// Package token issues and validates the HS256 bearer tokens handed out
// after login and verification.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"

	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrUnauthorized = errors.New("could not validate credentials")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims is the payload of every token. Subject carries the user's email.
type Claims struct {
	Role      string `json:"role"`
	UserID    int64  `json:"id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Pair is what a successful login or verification hands back
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Remaining is how long the token stays valid after now. Zero once expired.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}

	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}

	return d
}

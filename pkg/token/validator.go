package token

import (
	"context"
	"cyberslate/esports-api/internal/model"
	"cyberslate/esports-api/internal/repo"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type UserFinder interface {
	FindActiveByEmail(ctx context.Context, email string) (*model.User, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Validator turns a raw bearer token back into an active user. Checks run in
// a fixed order: revocation (refresh only), signature, expiry, claim shape,
// token type and finally the user lookup.
type Validator struct {
	secret  []byte
	users   UserFinder
	revoked RevocationChecker
	now     func() time.Time
}

func NewValidator(secret string, users UserFinder, revoked RevocationChecker) *Validator {
	return &Validator{
		secret:  []byte(secret),
		users:   users,
		revoked: revoked,
		now:     time.Now,
	}
}

// WithClock returns a copy of v that reads time from now
func (v *Validator) WithClock(now func() time.Time) *Validator {
	cp := *v
	cp.now = now
	return &cp
}

func (v *Validator) CurrentUser(ctx context.Context, raw string) (*model.User, error) {
	u, _, err := v.validate(ctx, raw, TypeAccess)
	return u, err
}

// ValidateRefresh also returns the claims so callers can work out how long
// the presented token would have stayed valid.
func (v *Validator) ValidateRefresh(ctx context.Context, raw string) (*model.User, *Claims, error) {
	revoked, err := v.revoked.IsRevoked(ctx, raw)
	if err != nil {
		return nil, nil, err
	}

	if revoked {
		return nil, nil, ErrTokenRevoked
	}

	return v.validate(ctx, raw, TypeRefresh)
}

func (v *Validator) validate(ctx context.Context, raw, want string) (*model.User, *Claims, error) {
	claims, err := v.parse(raw)
	if err != nil {
		return nil, nil, err
	}

	if claims.Subject == "" || claims.UserID <= 0 || claims.TokenType == "" {
		return nil, nil, ErrUnauthorized
	}

	if claims.TokenType != want {
		return nil, nil, ErrUnauthorized
	}

	u, err := v.users.FindActiveByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrUnauthorized
		}

		return nil, nil, fmt.Errorf("failed to load token owner, %w", err)
	}

	if u.ID != claims.UserID {
		return nil, nil, ErrUnauthorized
	}

	return u, claims, nil
}

func (v *Validator) parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrUnauthorized
	}

	claims := &Claims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}

		return nil, ErrUnauthorized
	}

	return claims, nil
}

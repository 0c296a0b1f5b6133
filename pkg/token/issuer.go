package token

import (
	"cyberslate/esports-api/internal/model"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type IssuerOption func(*Issuer)

func WithTTLs(access, refresh time.Duration) IssuerOption {
	return func(i *Issuer) {
		if access > 0 {
			i.accessTTL = access
		}

		if refresh > 0 {
			i.refreshTTL = refresh
		}
	}
}

// WithClock overrides time.Now, mostly for tests
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(secret string, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		secret:     []byte(secret),
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}

	for _, o := range opts {
		o(i)
	}

	return i
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }
func (i *Issuer) Now() time.Time            { return i.now() }

func (i *Issuer) IssueAccess(u *model.User) (string, error) {
	return i.sign(u, TypeAccess, i.accessTTL)
}

func (i *Issuer) IssueRefresh(u *model.User) (string, error) {
	return i.sign(u, TypeRefresh, i.refreshTTL)
}

func (i *Issuer) IssuePair(u *model.User) (*Pair, error) {
	access, err := i.IssueAccess(u)
	if err != nil {
		return nil, err
	}

	refresh, err := i.IssueRefresh(u)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (i *Issuer) sign(u *model.User, typ string, ttl time.Duration) (string, error) {
	jti, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id, %w", err)
	}

	now := i.now()

	claims := Claims{
		Role:      u.Role,
		UserID:    u.ID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token, %w", typ, err)
	}

	return signed, nil
}

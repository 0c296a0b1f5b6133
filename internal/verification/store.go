// Package verification keeps short lived email verification codes in Redis.
//
// Each code is stored twice: a hash under verification:{code} holding the
// record, and verification:email:{email} pointing back at the current code so
// a resend can find and drop the previous one without scanning.
package verification

import (
	"context"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/pkg/security"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL is how long a code stays usable
const DefaultTTL = 10 * time.Minute

// ErrVerificationFailed covers both wrong and expired codes on purpose
var ErrVerificationFailed = apperr.New(apperr.KindVerification, "Verification code is wrong or expired")

type Record struct {
	Code   string
	UserID int64
	Email  string
}

type Store struct {
	rdb     *redis.Client
	ttl     time.Duration
	newCode func() (string, error)
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithCodeGenerator replaces the crypto/rand code source
func WithCodeGenerator(f func() (string, error)) Option {
	return func(s *Store) { s.newCode = f }
}

func NewStore(rdb *redis.Client, opts ...Option) *Store {
	s := &Store{
		rdb:     rdb,
		ttl:     DefaultTTL,
		newCode: security.NewVerificationCode,
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

func (s *Store) TTL() time.Duration { return s.ttl }

func codeKey(code string) string   { return "verification:" + code }
func emailKey(email string) string { return "verification:email:" + email }

// Issue creates a new code for the user. Any code still live for the same
// email is deleted first, so at most one code per email can be redeemed.
func (s *Store) Issue(ctx context.Context, userID int64, email string) (string, error) {
	if err := s.Invalidate(ctx, email); err != nil {
		return "", err
	}

	code, err := s.newCode()
	if err != nil {
		return "", err
	}

	key := codeKey(code)

	// Record, its expiry and the email index land together or not at all
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, map[string]any{
			"code":    code,
			"user_id": strconv.FormatInt(userID, 10),
			"email":   email,
		})
		p.Expire(ctx, key, s.ttl)
		p.Set(ctx, emailKey(email), code, s.ttl)

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to store verification code, %w", err)
	}

	return code, nil
}

// Reissue replaces whatever code the email currently has. It is the same
// operation as Issue and tolerates the old code having already expired.
func (s *Store) Reissue(ctx context.Context, userID int64, email string) (string, error) {
	return s.Issue(ctx, userID, email)
}

// Lookup returns the record behind code. Missing, expired and mismatching
// records all yield ErrVerificationFailed.
func (s *Store) Lookup(ctx context.Context, code string) (*Record, error) {
	data, err := s.rdb.HGetAll(ctx, codeKey(code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read verification record, %w", err)
	}

	if len(data) == 0 || data["code"] != code {
		return nil, ErrVerificationFailed
	}

	userID, err := strconv.ParseInt(data["user_id"], 10, 64)
	if err != nil {
		zap.L().Warn("Corrupt verification record", zap.String("key", codeKey(code)), zap.Error(err))
		return nil, ErrVerificationFailed
	}

	return &Record{
		Code:   code,
		UserID: userID,
		Email:  data["email"],
	}, nil
}

// Consume deletes both keys of rec. Call it only after the user has been
// activated so a failure in between leaves the code usable for a retry.
func (s *Store) Consume(ctx context.Context, rec *Record) error {
	keys := []string{codeKey(rec.Code)}
	if rec.Email != "" {
		keys = append(keys, emailKey(rec.Email))
	}

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to consume verification code, %w", err)
	}

	return nil
}

// Invalidate drops the live code for email, if there is one
func (s *Store) Invalidate(ctx context.Context, email string) error {
	old, err := s.rdb.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to read verification index, %w", err)
	}

	if err := s.rdb.Del(ctx, codeKey(old), emailKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to drop previous verification code, %w", err)
	}

	return nil
}

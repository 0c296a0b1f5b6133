package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type UnverifiedDeleter interface {
	DeleteUnverifiedBefore(ctx context.Context, t time.Time) (int64, error)
}

// AccountCleanup deletes accounts that never verified their email within
// MaxAge of registering
type AccountCleanup struct {
	Users  UnverifiedDeleter
	MaxAge time.Duration
	now    func() time.Time
}

func NewAccountCleanup(users UnverifiedDeleter, maxAge time.Duration) *AccountCleanup {
	return &AccountCleanup{Users: users, MaxAge: maxAge, now: time.Now}
}

// Run performs a single cleanup pass
func (a *AccountCleanup) Run(ctx context.Context) (int64, error) {
	n, err := a.Users.DeleteUnverifiedBefore(ctx, a.now().Add(-a.MaxAge))
	if err != nil {
		zap.L().Error("Failed to delete unverified accounts", zap.Error(err))
		return 0, err
	}

	zap.L().Debug("Account cleanup finished", zap.Int64("deleted", n))

	return n, nil
}

// Schedule runs the cleanup on spec, e.g. "@daily". The returned scheduler
// is already started.
func (a *AccountCleanup) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		a.Run(ctx)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	zap.L().Debug("Account cleanup attached", zap.String("spec", spec), zap.Duration("max_age", a.MaxAge))

	return c, nil
}

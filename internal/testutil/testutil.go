// Package testutil builds throwaway stores for tests
package testutil

import (
	"context"
	"cyberslate/esports-api/internal/model"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database. The pool is pinned to a
// single connection because every new connection would see an empty database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(model.User{}, model.Command{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

// NewRedis starts a miniredis server that is torn down with the test
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return mr, rdb
}

// CreateUser inserts a user with the given state. The password hash is an
// opaque placeholder unless the caller overrides it.
func CreateUser(t testing.TB, db *gorm.DB, u model.User) *model.User {
	t.Helper()

	if u.Role == "" {
		u.Role = model.RoleViewer
	}
	if u.PasswordHash == "" {
		u.PasswordHash = "x"
	}

	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return &u
}

// FailingHook makes every command matched by Match fail with Err, both on
// its own and inside a pipeline. A failing pipeline is never sent.
type FailingHook struct {
	Match func(cmd redis.Cmder) bool
	Err   error
}

func (h FailingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h FailingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if h.Match(cmd) {
			cmd.SetErr(h.Err)
			return h.Err
		}

		return next(ctx, cmd)
	}
}

func (h FailingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			if h.Match(cmd) {
				for _, c := range cmds {
					c.SetErr(h.Err)
				}
				return h.Err
			}
		}

		return next(ctx, cmds)
	}
}

// CommandNamed matches commands by their lowercase name, e.g. "expire"
func CommandNamed(name string) func(redis.Cmder) bool {
	return func(cmd redis.Cmder) bool { return cmd.Name() == name }
}

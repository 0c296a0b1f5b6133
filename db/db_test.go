package db

import (
	"context"
	"cyberslate/esports-api/internal/model"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SQLite(t *testing.T) {
	gdb, err := New("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	assert.True(t, gdb.Migrator().HasTable(&model.User{}))
	assert.True(t, gdb.Migrator().HasTable(&model.Command{}))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.Close()

	_, err = New("mysql", "")
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	gdb, err := New("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	var names []string
	require.NoError(t, gdb.Model(model.Migration{}).Order("id").Pluck("name", &names).Error)
	assert.Equal(t, []string{"0001_users_commands", "0002_commands_name_lower_idx"}, names)

	n, err := Migrate(gdb)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.True(t, gdb.Migrator().HasIndex(&model.Command{}, "idx_commands_name_lower"))
}

func TestPing(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, Ping(context.Background(), rdb, 3, time.Millisecond))

	mr.SetError("LOADING")
	err := Ping(context.Background(), rdb, 3, time.Millisecond)
	assert.ErrorContains(t, err, "after 3 attempts")
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer rdb.Close()

	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())

	_, err = NewRedis(context.Background(), "not a url")
	assert.Error(t, err)
}

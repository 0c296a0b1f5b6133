package repo

import (
	"context"
	"cyberslate/esports-api/internal/model"
	"cyberslate/esports-api/internal/testutil"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_ActiveLookups(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewUserRepo(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, model.User{Username: "alice", Email: "a@x.com"})

	_, err := r.FindActiveByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := r.FindInactiveByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, r.Activate(ctx, u.ID))
	// Activation is idempotent
	require.NoError(t, r.Activate(ctx, u.ID))

	got, err = r.FindActiveByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	_, err = r.FindInactiveByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_Taken(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewUserRepo(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, model.User{Username: "alice", Email: "a@x.com"})

	tests := []struct {
		name     string
		email    string
		username string
		want     bool
	}{
		{name: "same email", email: "a@x.com", username: "bob", want: true},
		{name: "same username", email: "b@x.com", username: "alice", want: true},
		{name: "free", email: "b@x.com", username: "bob", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taken, err := r.Taken(ctx, tt.email, tt.username)
			require.NoError(t, err)
			assert.Equal(t, tt.want, taken)
		})
	}
}

func TestUserRepo_Delete(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewUserRepo(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, model.User{Username: "alice", Email: "a@x.com"})

	require.NoError(t, r.Delete(ctx, u.ID))
	assert.ErrorIs(t, r.Delete(ctx, u.ID), ErrNotFound)

	_, err := r.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_DeleteKeepsTeamsConsistent(t *testing.T) {
	db := testutil.NewDB(t)
	users := NewUserRepo(db)
	cmds := NewCommandRepo(db)
	ctx := context.Background()

	player := func(name string) *model.User {
		return testutil.CreateUser(t, db, model.User{
			Username: name,
			Email:    name + "@x.com",
			Role:     model.RolePlayer,
			IsActive: true,
		})
	}

	lead := player("lead")
	cmd := &model.Command{Name: "Navi", PasswordHash: "x"}
	require.NoError(t, cmds.Create(ctx, cmd, lead.ID))

	var members []*model.User
	for i := 0; i < model.MaxCommandSize-1; i++ {
		u := player(fmt.Sprintf("p%d", i))
		require.NoError(t, cmds.Join(ctx, cmd.ID, u.ID))
		members = append(members, u)
	}

	got, err := cmds.FindActive(ctx, cmd.ID)
	require.NoError(t, err)
	require.True(t, got.IsFilled)

	require.NoError(t, users.Delete(ctx, members[0].ID))

	got, err = cmds.FindActive(ctx, cmd.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFilled)
	assert.Len(t, got.Users, model.MaxCommandSize-1)

	// Deleting the creator takes the team with them
	require.NoError(t, users.Delete(ctx, lead.ID))

	_, err = cmds.FindActive(ctx, cmd.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	left, err := users.FindByID(ctx, members[1].ID)
	require.NoError(t, err)
	assert.Nil(t, left.CommandID)
	assert.False(t, left.IsTeamCreator)
}

func TestUserRepo_DeleteUnverifiedBefore(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewUserRepo(db)
	ctx := context.Background()

	old := time.Now().Add(-10 * 24 * time.Hour)

	testutil.CreateUser(t, db, model.User{Username: "stale", Email: "s@x.com", CreatedAt: old})
	testutil.CreateUser(t, db, model.User{Username: "fresh", Email: "f@x.com"})
	testutil.CreateUser(t, db, model.User{Username: "veteran", Email: "v@x.com", IsActive: true, CreatedAt: old})

	n, err := r.DeleteUnverifiedBefore(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var left int64
	require.NoError(t, db.Model(model.User{}).Count(&left).Error)
	assert.EqualValues(t, 2, left)
}

func TestCommandRepo_Lifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewCommandRepo(db)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, model.User{Username: "lead", Email: "lead@x.com", Role: model.RolePlayer, IsActive: true})

	cmd := &model.Command{Name: "Navi", PasswordHash: "x"}
	require.NoError(t, r.Create(ctx, cmd, creator.ID))

	taken, err := r.NameTaken(ctx, "Navi")
	require.NoError(t, err)
	assert.True(t, taken)

	got, err := r.FindActive(ctx, cmd.ID)
	require.NoError(t, err)
	require.Len(t, got.Users, 1)
	assert.True(t, got.Users[0].IsTeamCreator)

	for i := 0; i < model.MaxCommandSize-1; i++ {
		u := testutil.CreateUser(t, db, model.User{
			Username: fmt.Sprintf("p%d", i),
			Email:    fmt.Sprintf("p%d@x.com", i),
			Role:     model.RolePlayer,
			IsActive: true,
		})
		require.NoError(t, r.Join(ctx, cmd.ID, u.ID))
	}

	got, err = r.FindActive(ctx, cmd.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFilled)
	assert.Len(t, got.Users, model.MaxCommandSize)

	late := testutil.CreateUser(t, db, model.User{Username: "late", Email: "late@x.com", Role: model.RolePlayer, IsActive: true})
	assert.ErrorIs(t, r.Join(ctx, cmd.ID, late.ID), ErrCommandFilled)

	var member model.User
	for _, u := range got.Users {
		if !u.IsTeamCreator {
			member = u
			break
		}
	}
	require.NoError(t, r.Leave(ctx, cmd.ID, member.ID))
	got, err = r.FindActive(ctx, cmd.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFilled)

	require.NoError(t, r.Delete(ctx, cmd.ID))
	_, err = r.FindActive(ctx, cmd.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var detached model.User
	require.NoError(t, db.First(&detached, creator.ID).Error)
	assert.Nil(t, detached.CommandID)
	assert.False(t, detached.IsTeamCreator)
}

func TestCommandRepo_Search(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewCommandRepo(db)
	ctx := context.Background()

	for i := 0; i < SearchPageSize+5; i++ {
		u := testutil.CreateUser(t, db, model.User{
			Username: fmt.Sprintf("lead%d", i),
			Email:    fmt.Sprintf("lead%d@x.com", i),
			Role:     model.RolePlayer,
			IsActive: true,
		})
		require.NoError(t, r.Create(ctx, &model.Command{Name: fmt.Sprintf("Team %02d", i), PasswordHash: "x"}, u.ID))
	}
	require.NoError(t, r.Create(ctx, &model.Command{Name: "Virtus Pro", PasswordHash: "x", Status: model.CommandInactive}, 0))

	page, err := r.Search(ctx, CommandSearch{})
	require.NoError(t, err)
	require.Len(t, page, SearchPageSize)
	assert.Greater(t, page[0].ID, page[1].ID)

	next, err := r.Search(ctx, CommandSearch{LastID: page[len(page)-1].ID})
	require.NoError(t, err)
	assert.Len(t, next, 6)

	byName, err := r.Search(ctx, CommandSearch{Name: "  virtus "})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Virtus Pro", byName[0].Name)

	active, err := r.Search(ctx, CommandSearch{Name: "virtus", Status: model.CommandActive})
	require.NoError(t, err)
	assert.Empty(t, active)

	filled := true
	none, err := r.Search(ctx, CommandSearch{IsFilled: &filled})
	require.NoError(t, err)
	assert.Empty(t, none)
}

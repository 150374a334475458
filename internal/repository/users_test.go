//go:build integration

package repository

import (
	"fmt"
	"testing"
	"time"

	"openbet/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_FindOrCreate(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	uid := fmt.Sprintf("test-sub-%d", time.Now().UnixNano())
	defer db.Pool.Exec(ctx, "DELETE FROM users WHERE uid = $1", uid)

	u, created, err := db.Users.FindOrCreate(ctx, &models.User{
		UID:   uid,
		Email: "fan@example.com",
		Name:  "Fan",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.DefaultRole, u.Role)
	assert.Empty(t, u.Favorites)
	assert.False(t, u.FavoriteTeam.Valid)

	// Second sign-in keeps the stored row
	again, created, err := db.Users.FindOrCreate(ctx, &models.User{UID: uid, Name: "Renamed"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Fan", again.Name)
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	uid := fmt.Sprintf("test-sub-%d", time.Now().UnixNano())
	defer db.Pool.Exec(ctx, "DELETE FROM users WHERE uid = $1", uid)

	_, _, err := db.Users.FindOrCreate(ctx, &models.User{UID: uid, Name: "Fan"})
	require.NoError(t, err)

	team := "Boston Celtics"
	u, err := db.Users.UpdateProfile(ctx, uid, models.ProfileUpdate{FavoriteTeam: &team})
	require.NoError(t, err)
	assert.Equal(t, team, u.FavoriteTeam.String)
	assert.False(t, u.DisplayName.Valid, "Untouched fields should stay null")

	display := "Green Team"
	u, err = db.Users.UpdateProfile(ctx, uid, models.ProfileUpdate{DisplayName: &display})
	require.NoError(t, err)
	assert.Equal(t, team, u.FavoriteTeam.String)
	assert.Equal(t, display, u.DisplayName.String)

	u, err = db.Users.UpdateProfile(ctx, uid, models.ProfileUpdate{Favorites: []string{"Boston Celtics", "Miami Heat"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Boston Celtics", "Miami Heat"}, u.Favorites)
	assert.Equal(t, display, u.DisplayName.String)

	u, err = db.Users.UpdateProfile(ctx, uid, models.ProfileUpdate{Favorites: []string{}})
	require.NoError(t, err)
	assert.Empty(t, u.Favorites)
}

func TestUserRepository_NotFound(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, err := db.Users.GetByUID(ctx, "no-such-user")
	assert.ErrorIs(t, err, ErrUserNotFound)

	name := "x"
	_, err = db.Users.UpdateProfile(ctx, "no-such-user", models.ProfileUpdate{DisplayName: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

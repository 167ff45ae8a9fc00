package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/content_auth/internal/models"
)

func TestCreateUser_Defaults(t *testing.T) {
	t.Parallel()
	r := newRepo(t)

	u := seedUser(t, r, "a@x.com")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.StatusInactive, u.Status)
	assert.Equal(t, models.RoleOwner, u.Role)
	assert.False(t, u.IsVerified)

	got, err := r.FindUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, models.StatusInactive, got.Status)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	t.Parallel()
	r := newRepo(t)

	seedUser(t, r, "a@x.com")
	err := r.CreateUser(context.Background(), &models.User{Email: "a@x.com", FullName: "John Roe", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFindUser_NotFound(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	_, err := r.FindUserByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindUserByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserStatus(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.UpdateUserStatus(ctx, u.ID, models.StatusActive))

	got, err := r.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.True(t, got.IsVerified)

	assert.ErrorIs(t, r.UpdateUserStatus(ctx, "no-such-id", models.StatusActive), ErrNotFound)
}

func TestResetPendingUser(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.ResetPendingUser(ctx, u.ID, "Jane Smith", "new-hash"))

	got, err := r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", got.FullName)
	assert.Equal(t, "new-hash", got.PasswordHash)

	require.NoError(t, r.UpdateUserStatus(ctx, u.ID, models.StatusActive))
	assert.ErrorIs(t, r.ResetPendingUser(ctx, u.ID, "Mallory Evil", "evil"), ErrNotFound)

	got, err = r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
}

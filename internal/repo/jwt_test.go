package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/content_auth/internal/models"
)

func refreshFor(userID, hash string) *models.RefreshToken {
	return &models.RefreshToken{
		TokenHash: hash,
		JTI:       uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
}

func TestRefreshToken_CreateFindPreloadsUser(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.CreateRefreshToken(ctx, refreshFor(u.ID, "h1")))

	got, err := r.FindRefreshToken(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, u.ID, got.User.ID)
	assert.Equal(t, "a@x.com", got.User.Email)

	_, err = r.FindRefreshToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshToken_ManyPerUser(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.CreateRefreshToken(ctx, refreshFor(u.ID, "h1")))
	require.NoError(t, r.CreateRefreshToken(ctx, refreshFor(u.ID, "h2")))

	for _, h := range []string{"h1", "h2"} {
		_, err := r.FindRefreshToken(ctx, h)
		assert.NoError(t, err, h)
	}

	assert.ErrorIs(t, r.CreateRefreshToken(ctx, refreshFor(u.ID, "h1")), ErrDuplicate)
}

func TestDeleteRefreshTokensForUser(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	a := seedUser(t, r, "a@x.com")
	b := seedUser(t, r, "b@x.com")
	require.NoError(t, r.CreateRefreshToken(ctx, refreshFor(a.ID, "a1")))
	require.NoError(t, r.CreateRefreshToken(ctx, refreshFor(a.ID, "a2")))
	require.NoError(t, r.CreateRefreshToken(ctx, refreshFor(b.ID, "b1")))

	n, err := r.DeleteRefreshTokensForUser(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = r.DeleteRefreshTokensForUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = r.FindRefreshToken(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.FindRefreshToken(ctx, "b1")
	assert.NoError(t, err)
}

func TestDeleteRefreshToken(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.CreateRefreshToken(ctx, refreshFor(u.ID, "h1")))
	require.NoError(t, r.DeleteRefreshToken(ctx, "h1"))

	_, err := r.FindRefreshToken(ctx, "h1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRotateRefreshToken(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.CreateRefreshToken(ctx, refreshFor(u.ID, "old")))

	require.NoError(t, r.RotateRefreshToken(ctx, "old", refreshFor(u.ID, "new")))

	_, err := r.FindRefreshToken(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.FindRefreshToken(ctx, "new")
	assert.NoError(t, err)

	err = r.RotateRefreshToken(ctx, "old", refreshFor(u.ID, "other"))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.FindRefreshToken(ctx, "other")
	assert.ErrorIs(t, err, ErrNotFound, "losing rotation must not store its token")
}

package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOTP_Supersedes(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.SaveOTP(ctx, u.ID, "111111", now.Add(10*time.Minute)))
	require.NoError(t, r.SaveOTP(ctx, u.ID, "222222", now.Add(10*time.Minute)))

	rec, err := r.FindActiveOTP(ctx, u.ID, now, 5)
	require.NoError(t, err)
	assert.Equal(t, "222222", rec.Code)

	ok, err := r.ConsumeOTP(ctx, u.ID, "111111", now, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	var count int64
	require.NoError(t, r.DB.Table("otps").Where("user_id = ?", u.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSaveOTP_ResetsState(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.SaveOTP(ctx, u.ID, "111111", now.Add(time.Minute)))
	ok, err := r.ConsumeOTP(ctx, u.ID, "111111", now, 5)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, r.SaveOTP(ctx, u.ID, "333333", now.Add(time.Minute)))
	rec, err := r.FindActiveOTP(ctx, u.ID, now, 5)
	require.NoError(t, err)
	assert.False(t, rec.Consumed)
	assert.Zero(t, rec.Attempts)
}

func TestConsumeOTP_Once(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.SaveOTP(ctx, u.ID, "123456", now.Add(time.Minute)))

	ok, err := r.ConsumeOTP(ctx, u.ID, "123456", now, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ConsumeOTP(ctx, u.ID, "123456", now, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.FindActiveOTP(ctx, u.ID, now, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeOTP_Expired(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.SaveOTP(ctx, u.ID, "123456", now.Add(time.Minute)))

	ok, err := r.ConsumeOTP(ctx, u.ID, "123456", now.Add(2*time.Minute), 5)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.FindActiveOTP(ctx, u.ID, now.Add(2*time.Minute), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeOTP_AttemptCap(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.SaveOTP(ctx, u.ID, "123456", now.Add(time.Minute)))

	for i := 0; i < 3; i++ {
		ok, err := r.ConsumeOTP(ctx, u.ID, "000000", now, 3)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err := r.ConsumeOTP(ctx, u.ID, "123456", now, 3)
	require.NoError(t, err)
	assert.False(t, ok, "code must be dead after the attempt cap")
}

func TestConsumeOTP_Concurrent(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, r, "a@x.com")
	require.NoError(t, r.SaveOTP(ctx, u.ID, "123456", now.Add(time.Minute)))

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := r.ConsumeOTP(ctx, u.ID, "123456", now, 5)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestFindActiveOTP_Missing(t *testing.T) {
	t.Parallel()
	r := newRepo(t)

	_, err := r.FindActiveOTP(context.Background(), "nobody", time.Now(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

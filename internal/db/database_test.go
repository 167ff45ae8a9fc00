package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/content_auth/internal/models"
)

func TestOpen_RejectsEmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "postgres", "")
	require.Error(t, err)
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestOpen_SQLiteMigrateAndPing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	gdb, err := Open(ctx, "sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, Migrate(ctx, gdb))
	require.NoError(t, Ping(ctx, gdb))

	for _, m := range []any{&models.User{}, &models.OTP{}, &models.RefreshToken{}} {
		assert.True(t, gdb.Migrator().HasTable(m))
	}
}

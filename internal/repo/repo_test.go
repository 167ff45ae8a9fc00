package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/content_auth/internal/db/dbtest"
	"github.com/Skotchmaster/content_auth/internal/models"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	return New(dbtest.New(t))
}

func seedUser(t *testing.T, r *GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FullName: "Jane Doe", PasswordHash: "hash"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

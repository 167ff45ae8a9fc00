package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/content_auth/internal/guard"
	"github.com/Skotchmaster/content_auth/internal/models"
)

type fakeAuthn map[string]guard.Identity

func (f fakeAuthn) Authenticate(raw string) (guard.Identity, error) {
	id, ok := f[raw]
	if !ok {
		return guard.Identity{}, errors.New("bad token")
	}
	return id, nil
}

var authn = fakeAuthn{
	"owner-token": {UserID: "u1", Email: "a@x.com", Role: models.RoleOwner},
	"admin-token": {UserID: "u2", Email: "b@x.com", Role: models.RoleAdmin},
}

func run(t *testing.T, req *http.Request, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		require.True(t, ok)
		return c.String(http.StatusOK, id.UserID)
	}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return rec, h(c)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected HTTPError, got %v", err)
	return he.Code
}

func TestRequireAuth_Bearer(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer owner-token")

	rec, err := run(t, req, RequireAuth(authn))
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestRequireAuth_Cookie(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "admin-token"})

	rec, err := run(t, req, RequireAuth(authn))
	require.NoError(t, err)
	assert.Equal(t, "u2", rec.Body.String())
}

func TestRequireAuth_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "unknown token", header: "Bearer nope"},
		{name: "wrong scheme", header: "Basic owner-token"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			_, err := run(t, req, RequireAuth(authn))
			assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
		})
	}
}

func TestRequireRoles(t *testing.T) {
	t.Parallel()

	adminOnly := guard.Roles(models.RoleAdmin)

	req := httptest.NewRequest(http.MethodDelete, "/logout/u1", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer owner-token")
	_, err := run(t, req, RequireAuth(authn), RequireRoles(adminOnly))
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	req = httptest.NewRequest(http.MethodDelete, "/logout/u1", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")
	_, err = run(t, req, RequireAuth(authn), RequireRoles(adminOnly))
	assert.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer owner-token")
	_, err = run(t, req, RequireAuth(authn), RequireRoles(guard.Authenticated))
	assert.NoError(t, err)
}

func TestRequireRoles_WithoutIdentityDenies(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	_, err := run(t, req, RequireRoles(guard.Authenticated))
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

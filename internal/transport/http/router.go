package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/content_auth/internal/guard"
	"github.com/Skotchmaster/content_auth/internal/handlers"
	"github.com/Skotchmaster/content_auth/internal/models"
	mwauth "github.com/Skotchmaster/content_auth/internal/middleware/auth"
	"github.com/Skotchmaster/content_auth/internal/middleware/csrf"
)

const prefix = "/api/v1/auth"

type Deps struct {
	AuthHandler   *handlers.AuthHTTP
	Authenticator mwauth.Authenticator
	// Ready reports whether dependencies answer. Nil means always ready.
	Ready func(ctx context.Context) error
	// CSRF guards cookie sessions on the auth routes. Nil disables it.
	CSRF *csrf.Config
}

// Route binds a handler to its access policy. Public routes skip
// authentication; every other route runs RequireAuth then RequireRoles.
type Route struct {
	Method  string
	Path    string
	Handler echo.HandlerFunc
	Public  bool
	Policy  guard.Policy
}

func Routes(d *Deps) []Route {
	h := d.AuthHandler
	return []Route{
		{Method: http.MethodPost, Path: "/register", Handler: h.Register, Public: true},
		{Method: http.MethodPatch, Path: "/verify/:userId", Handler: h.Verify, Public: true},
		{Method: http.MethodPost, Path: "/login", Handler: h.Login, Public: true},
		{Method: http.MethodPost, Path: "/refresh", Handler: h.Refresh, Public: true},
		{Method: http.MethodGet, Path: "/me", Handler: h.Me, Policy: guard.Authenticated},
		{Method: http.MethodPost, Path: "/logout", Handler: h.LogOut, Policy: guard.Authenticated},
		{Method: http.MethodDelete, Path: "/logout/:userId", Handler: h.LogOutUser, Policy: guard.Roles(models.RoleAdmin)},
	}
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	g := e.Group(prefix)
	if d.CSRF != nil {
		g.Use(csrf.Middleware(*d.CSRF))
	}
	requireAuth := mwauth.RequireAuth(d.Authenticator)
	for _, r := range Routes(d) {
		if r.Public {
			g.Add(r.Method, r.Path, r.Handler)
			continue
		}
		g.Add(r.Method, r.Path, r.Handler, requireAuth, mwauth.RequireRoles(r.Policy))
	}
}

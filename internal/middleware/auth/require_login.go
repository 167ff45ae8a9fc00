package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/content_auth/internal/guard"
	"github.com/Skotchmaster/content_auth/internal/logging"
)

type Authenticator interface {
	Authenticate(raw string) (guard.Identity, error)
}

// RequireAuth verifies the access token and stores the caller identity in
// the request context.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("mw", "require_auth")

			raw := accessToken(c)
			if raw == "" {
				l.Warn("auth_failed", "status", 401, "reason", "missing access token")
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			id, err := a.Authenticate(raw)
			if err != nil {
				l.Warn("auth_failed", "status", 401, "reason", "invalid access token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			ctx = logging.IntoContext(guard.WithIdentity(ctx, id), logging.FromContext(ctx).With("user_id", id.UserID))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

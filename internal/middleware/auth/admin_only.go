package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/content_auth/internal/guard"
	"github.com/Skotchmaster/content_auth/internal/logging"
)

// RequireRoles lets the request through only when guard.Authorize accepts
// the identity set by RequireAuth. Without RequireAuth in front it denies.
func RequireRoles(policy guard.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			id, err := guard.Authorize(ctx, policy)
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, guard.ErrForbidden):
				logging.FromContext(ctx).Warn("access_denied", "status", 403, "role", id.Role, "path", c.Path())
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
		}
	}
}

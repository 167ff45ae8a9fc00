package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/content_auth/internal/guard"
)

const AccessCookie = "accessToken"

// accessToken prefers the Authorization header over the cookie.
func accessToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func IdentityFrom(c echo.Context) (guard.Identity, bool) {
	return guard.IdentityFrom(c.Request().Context())
}

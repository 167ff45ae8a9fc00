package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/content_auth/internal/guard"
	"github.com/Skotchmaster/content_auth/internal/logging"
	"github.com/Skotchmaster/content_auth/internal/service"
	"github.com/Skotchmaster/content_auth/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return httpError(err)
	}

	user, err := h.Svc.Register(ctx, req.Email, req.FullName, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, transport.RegisterResponse{
		Message: "registered, check your email for the code",
		User:    user,
	})
}

func (h *AuthHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_verify")

	var req transport.VerifyRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("verify_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.Verify(ctx, req.UserID, req.OTP); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "account verified"})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(CreateCookie(accessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(CreateCookie(refreshCookie, res.RefreshToken, "/", res.RefreshExp))
	l.Info("login_successful")

	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		AccessExpiresAt:  res.AccessExp,
		RefreshExpiresAt: res.RefreshExp,
		User:             res.User,
	})
}

// Refresh takes the token from the body and falls back to the cookie.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Token == "" {
		if ck, err := c.Cookie(refreshCookie); err == nil {
			req.Token = ck.Value
		}
	}

	res, err := h.Svc.RefreshAccessToken(ctx, req.Token)
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(CreateCookie(accessCookie, res.AccessToken, "/", res.AccessExp))
	out := transport.RefreshResponse{AccessToken: res.AccessToken, AccessExpiresAt: res.AccessExp}
	if res.RefreshToken != "" {
		c.SetCookie(CreateCookie(refreshCookie, res.RefreshToken, "/", res.RefreshExp))
		out.RefreshToken = res.RefreshToken
		out.RefreshExpiresAt = &res.RefreshExp
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := guard.IdentityFrom(ctx)
	if !ok {
		return httpError(guard.ErrNoIdentity)
	}
	user, err := h.Svc.Me(ctx, id.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// LogOut ends every session of the caller.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	id, ok := guard.IdentityFrom(ctx)
	if !ok {
		return httpError(guard.ErrNoIdentity)
	}

	c.SetCookie(DeleteCookie(refreshCookie, "/"))
	c.SetCookie(DeleteCookie(accessCookie, "/"))

	if err := h.Svc.Logout(ctx, id.UserID); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh tokens", "error", err)
		return httpError(err)
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "logged out"})
}

// LogOutUser ends every session of the user in the path.
func (h *AuthHTTP) LogOutUser(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.Svc.Logout(ctx, c.Param("userId")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "logged out"})
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/technotes/internal/jwt"
	"github.com/Skotchmaster/technotes/internal/logging"
	"github.com/Skotchmaster/technotes/internal/service"
	"github.com/Skotchmaster/technotes/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.MsgAllFieldsRequired)
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return err
	}

	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookieName, res.RefreshToken, "/", res.RefreshExp))
	return c.JSON(http.StatusOK, transport.AccessTokenResponse{AccessToken: res.AccessToken})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var raw string
	if cookie, err := c.Cookie(jwthelp.RefreshCookieName); err == nil {
		raw = cookie.Value
	}

	access, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.AccessTokenResponse{AccessToken: access})
}

// Logout is idempotent: without a cookie it answers 204, otherwise it clears
// the cookie and answers 200.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var raw string
	if cookie, err := c.Cookie(jwthelp.RefreshCookieName); err == nil {
		raw = cookie.Value
	}

	if !h.Svc.Logout(ctx, raw) {
		return c.NoContent(http.StatusNoContent)
	}

	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookieName, "/"))
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Cookie cleared"})
}

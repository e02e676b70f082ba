package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/technotes/internal/logging"
	"github.com/Skotchmaster/technotes/internal/service"
	"github.com/Skotchmaster/technotes/internal/transport"
)

type UsersHTTP struct {
	Svc *service.UsersService
}

func (h *UsersHTTP) List(c echo.Context) error {
	users, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UsersHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_create")

	var req transport.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_user_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.MsgInvalidUserData)
	}

	res, err := h.Svc.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *UsersHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_update")

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_user_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.MsgInvalidUserData)
	}

	res, err := h.Svc.Update(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	id, err := bindDeleteID(c, service.MsgUserNotFound)
	if err != nil {
		return err
	}

	res, err := h.Svc.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/technotes/internal/logging"
	"github.com/Skotchmaster/technotes/internal/service"
	"github.com/Skotchmaster/technotes/internal/transport"
	"github.com/Skotchmaster/technotes/internal/util"
)

type NotesHTTP struct {
	Svc *service.NotesService
}

func (h *NotesHTTP) List(c echo.Context) error {
	notes, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

func (h *NotesHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notes_create")

	var req transport.CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_note_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.MsgInvalidNoteData)
	}

	res, err := h.Svc.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *NotesHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notes_update")

	var req transport.UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_note_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.MsgInvalidNoteData)
	}

	res, err := h.Svc.Update(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *NotesHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := bindDeleteID(c, service.MsgNoteNotFound)
	if err != nil {
		return err
	}

	res, err := h.Svc.Delete(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *NotesHTTP) Search(c echo.Context) error {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.Search(c.Request().Context(), c.QueryParam("q"), page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// bindDeleteID returns uuid.Nil for an absent id. A malformed id cannot name
// any record, so it is reported with notFoundMsg.
func bindDeleteID(c echo.Context, notFoundMsg string) (uuid.UUID, error) {
	var req transport.DeleteRequest
	if err := c.Bind(&req); err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, notFoundMsg)
	}
	if req.ID == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, notFoundMsg)
	}
	return id, nil
}

package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/technotes/internal/logging"
	"github.com/Skotchmaster/technotes/internal/service"
	"github.com/Skotchmaster/technotes/internal/transport"
)

const msgInternal = "Internal server error"

// ErrorHandler renders every failure as {"message": ...}. Service errors map
// by kind; anything unrecognised becomes a generic 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, transport.MessageResponse{Message: msg})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response", "error", werr)
	}
}

func statusFor(err error) (int, string) {
	var se *service.Error
	if errors.As(err, &se) {
		switch {
		case errors.Is(se, service.ErrDuplicate):
			return http.StatusConflict, se.Message
		case errors.Is(se, service.ErrUnauthorized):
			return http.StatusUnauthorized, se.Message
		case errors.Is(se, service.ErrForbidden):
			return http.StatusForbidden, se.Message
		case errors.Is(se, service.ErrValidation),
			errors.Is(se, service.ErrNotFound),
			errors.Is(se, service.ErrHasNotes):
			return http.StatusBadRequest, se.Message
		}
		return http.StatusInternalServerError, msgInternal
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			return he.Code, msgInternal
		}
		switch m := he.Message.(type) {
		case string:
			return he.Code, m
		case nil:
			return he.Code, http.StatusText(he.Code)
		default:
			return he.Code, fmt.Sprint(m)
		}
	}

	return http.StatusInternalServerError, msgInternal
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/coreapi/store"
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// notFound names the missing record while still matching store.ErrNotFound.
type notFound struct {
	msg string
}

func (e notFound) Error() string { return e.msg }
func (e notFound) Unwrap() error { return store.ErrNotFound }

// missing replaces a store.ErrNotFound with msg; other errors pass through.
func missing(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound{msg: msg}
	}
	return err
}

// writeError maps a failed write to a response. The write's transaction has
// already been rolled back by the store.
func (h *Handler) writeError(op string, err error) error {
	var ve *ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Msg)
	case errors.As(err, &he):
		return he
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	h.log.Warn("write rolled back", zap.String("op", op), zap.Error(err))
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// readError maps a failed read: absent records are 404, anything else 500.
func readError(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msg)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed", zap.Int("status", code), zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]string{"error": msg})
		}
		if err != nil {
			log.Error("write error response", zap.Error(err))
		}
	}
}

package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/util"
)

// ErrorHandler renders every error as {"error": message}. Validation
// failures already carry a map with the offending fields and pass through.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var body any = echo.Map{"error": "Internal server error"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case echo.Map:
			body = m
		case string:
			if he == echo.ErrNotFound {
				m = "Not found"
			}
			body = echo.Map{"error": m}
		default:
			body = echo.Map{"error": http.StatusText(code)}
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}

func statusOf(kind error) int {
	switch kind {
	case service.ErrValidation, service.ErrConflict:
		return http.StatusBadRequest
	case service.ErrUnauthorized:
		return http.StatusUnauthorized
	case service.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respond logs err under event and converts it into the error the client sees.
func respond(l *zerolog.Logger, event string, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		l.Warn().Int("status", he.Code).Str("reason", "bad request").Err(err).Msg(event)
		return he
	}

	var se *service.Error
	if errors.As(err, &se) {
		code := statusOf(se.Kind)
		l.Warn().Int("status", code).Str("reason", se.Msg).Err(err).Msg(event)
		return echo.NewHTTPError(code, se.Msg)
	}

	l.Error().Int("status", http.StatusInternalServerError).Str("reason", "internal").Err(err).Msg(event)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

func parseID(c echo.Context, name, msg string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, msg)
	}
	return uint(v), nil
}

// pageParams reads page and limit from the query string.
func pageParams(c echo.Context) (page, offset, limit int) {
	page = util.ClampPage(util.ParseIntDefault(c.QueryParam("page"), 1))
	size := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit = util.Calculate(page, size)
	return page, offset, limit
}

func pageJSON(c echo.Context, page, limit int, total int64, data any) error {
	return c.JSON(http.StatusOK, echo.Map{
		"data": data,
		"meta": util.NewPage(page, limit, total),
	})
}

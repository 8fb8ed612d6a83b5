package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/crossborder-tracker/internal/api/handler"
	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their stable code and HTTP status.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "...", "code": "...", "fields": {...}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorResponse{
			Error: fmt.Sprintf("%v", he.Message),
			Code:  codeForStatus(he.Code),
		}
	}

	code := domain.CodeOf(err)
	switch code {
	case domain.CodeInternal:
		// Unexpected error: log the real cause, return a generic message.
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
		return http.StatusInternalServerError, handler.ErrorResponse{
			Error: "internal server error",
			Code:  string(domain.CodeInternal),
		}

	case domain.CodeValidation:
		resp := handler.ErrorResponse{Error: domain.ErrValidation.Error(), Code: string(code)}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			resp.Fields = ve.Fields
		}
		return http.StatusBadRequest, resp

	case domain.CodeCourierFailure:
		// Upstream detail stays in the logs and the api_logs audit trail.
		log.Warn().Err(err).Str("path", c.Path()).Msg("courier failure")
		return domain.HTTPStatus(code), handler.ErrorResponse{
			Error: domain.ErrCourierFailure.Error(),
			Code:  string(code),
		}
	}

	return domain.HTTPStatus(code), handler.ErrorResponse{Error: err.Error(), Code: string(code)}
}

// codeForStatus turns 405 into "METHOD_NOT_ALLOWED" and so on.
func codeForStatus(status int) string {
	if status == http.StatusNotFound {
		return string(domain.CodeNotFound)
	}
	text := http.StatusText(status)
	if text == "" {
		return "HTTP_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}

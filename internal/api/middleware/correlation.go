package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/crossborder-tracker/internal/pkg/reqctx"
)

// Correlation copies the request id into the request context so courier
// audit logs written while serving the request carry it. It must run after
// echo's RequestID middleware.
func Correlation() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			req := c.Request()
			if id != "" {
				c.SetRequest(req.WithContext(reqctx.WithCorrelationID(req.Context(), id)))
			} else {
				c.SetRequest(req.WithContext(reqctx.EnsureCorrelationID(req.Context())))
			}
			return next(c)
		}
	}
}

package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-myob/logger"
)

// Logger returns a middleware that logs one line per request. Query strings
// are never logged since they carry the authorization code.
func Logger(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			event := log.Info()
			if status >= http.StatusBadRequest {
				event = log.Warn()
			}
			event.
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Msg("Callback request")

			return nil
		}
	}
}

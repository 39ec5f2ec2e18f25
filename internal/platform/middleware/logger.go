// Package middleware carries the request-scoped plumbing shared by every
// route: correlation ids, structured request logging, and panic recovery.
package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/patientdb/patientdb/internal/platform/auth"
)

// Logger emits one structured line per request. The username and role fields
// are empty on unauthenticated routes; the token middleware fills them in for
// everything behind the login wall.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			// Re-read the request: the token middleware swaps it for one
			// carrying the authenticated identity.
			req := c.Request()
			ctx := req.Context()

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("username", auth.UserFromContext(ctx)).
				Str("role", auth.RoleFromContext(ctx)).
				Int("status", c.Response().Status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}

package echoapi

import (
	"github.com/labstack/echo/v4"
)

// adminMiddleware only lets admins through. It must run after loadAccountMiddleware.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if contextAccount(ctx).IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminGuard lets through callers whose resolved role is admin. Mount it after
// ResolveRole so promotions made in the database take effect.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := hasRole(c, "admin"); !ok {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access only"})
		}
		return next(c)
	}
}

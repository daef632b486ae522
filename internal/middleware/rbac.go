package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RoleSource looks up the marketplace role stored for a user.
type RoleSource interface {
	Role(ctx context.Context, userID string) (string, error)
}

// ResolveRole replaces the role taken from the token with the one stored for
// the caller. It must run after JWTMiddleware. A nil source keeps the token role.
func ResolveRole(roles RoleSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if roles == nil {
			return next
		}
		return func(c echo.Context) error {
			uid, _ := c.Get(ContextUserID).(string)
			if uid == "" {
				return next(c)
			}
			role, err := roles.Role(c.Request().Context(), uid)
			if err != nil {
				return fmt.Errorf("resolve role for %s: %w", uid, err)
			}
			c.Set(ContextRole, role)
			return next(c)
		}
	}
}

// hasRole reports the caller's resolved role and whether it is one of roles.
func hasRole(c echo.Context, roles ...string) (string, bool) {
	role, _ := c.Get(ContextRole).(string)
	if role == "" {
		return "", false
	}
	for _, r := range roles {
		if role == r {
			return role, true
		}
	}
	return role, false
}

// RequireRoles ensures the requester's role is one of the allowed roles.
// Usage: route(..., RequireRoles("client", "admin"))
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := hasRole(c, roles...)
			if role == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "role missing"})
			}
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}
			return next(c)
		}
	}
}

package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
)

// RequireRole enforces flat role-based access control. There is no role
// hierarchy: the resolved role must match one of the allowed roles exactly.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(RoleKey).(string)
			if _, ok := allowed[role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RequireAdmin guards the administrative routes.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin)
}

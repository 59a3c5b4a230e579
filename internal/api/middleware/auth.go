package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

// Context keys set by Auth.
const (
	IdentityKey = "identity"
	RoleKey     = "role"
)

// Auth validates the bearer token and resolves its subject against the user
// store, injecting the resulting identity into the request context.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			subject, err := auth.ValidateToken(parts[1])
			if err != nil {
				return domain.ErrUnauthorized
			}

			identity, err := auth.Resolve(c.Request().Context(), subject)
			if err != nil {
				return err
			}

			c.Set(IdentityKey, identity)
			c.Set(RoleKey, identity.Role)

			return next(c)
		}
	}
}

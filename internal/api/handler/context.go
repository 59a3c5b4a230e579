package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oncoscan/oncoscan-api/internal/api/middleware"
	"github.com/oncoscan/oncoscan-api/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware. Its
// presence proves the middleware ran; absence means a route was wired
// without auth and must fail closed.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity, _ := c.Get(middleware.IdentityKey).(*domain.Identity)
	if identity == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}

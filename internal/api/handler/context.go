package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identware/identity-api/internal/api/middleware"
)

// ctxIdentity extracts the authenticated identity injected by the Auth
// middleware and performs a fast-fail check before any service call: service
// and role must be non-empty (presence proves the middleware ran). Handlers
// scope every operation to this service, never to anything client-supplied.
func ctxIdentity(c echo.Context) (service, role string, err error) {
	service, _ = c.Get(middleware.CtxService).(string)
	role, _ = c.Get(middleware.CtxRole).(string)
	if service == "" || role == "" {
		return "", "", echo.NewHTTPError(http.StatusForbidden, "missing authentication claims")
	}
	return service, role, nil
}

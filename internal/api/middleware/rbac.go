package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identware/identity-api/internal/api/metrics"
	"github.com/identware/identity-api/internal/core/domain"
)

// RBAC enforces role-based access control over the role resolved by Auth.
// The caller's role for the token's service must match one of allowedRoles.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				metrics.AuthFailuresTotal.WithLabelValues("role_denied").Inc()
				return echo.NewHTTPError(http.StatusForbidden,
					"user is not allowed to access this service, admin must add role first")
			}
			return next(c)
		}
	}
}

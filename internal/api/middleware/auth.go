package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/identware/identity-api/internal/api/metrics"
	"github.com/identware/identity-api/internal/core/domain"
	"github.com/identware/identity-api/internal/core/ports"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUsername = "username"
	CtxService  = "service"
	CtxRole     = "role"
)

// Auth verifies the bearer token and resolves the caller's role grant for the
// service the token was issued for. On success it injects username, service
// and role into the request context.
//
// A token is only ever interpreted against its own service claim. A verified
// token whose (username, service) pair has no grant is rejected with 403, not
// 404, so callers cannot probe the global username namespace.
func Auth(tokens ports.TokenService, repo ports.DirectoryRepository, cache ports.RoleCache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.AuthFailuresTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "jwt must not be empty")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				metrics.AuthFailuresTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "invalid authorization header")
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				return tokenError(err)
			}

			role, err := resolveRole(c, claims, repo, cache)
			if err != nil {
				return err
			}

			c.Set(CtxUsername, claims.Username)
			c.Set(CtxService, claims.Service)
			c.Set(CtxRole, string(role))

			return next(c)
		}
	}
}

// resolveRole loads the caller's grant for the token's service, consulting
// the cache first when one is configured. Cache read/write failures fall
// through to the repository; the cache is an optimisation, never the source
// of truth.
func resolveRole(c echo.Context, claims *domain.Claims, repo ports.DirectoryRepository, cache ports.RoleCache) (domain.Role, error) {
	ctx := c.Request().Context()

	if cache != nil {
		if role, ok, err := cache.GetRole(ctx, claims.Username, claims.Service); err == nil && ok {
			metrics.RoleCacheTotal.WithLabelValues("hit").Inc()
			return role, nil
		}
		metrics.RoleCacheTotal.WithLabelValues("miss").Inc()
	}

	m, err := repo.FindByUsernameInService(ctx, claims.Username, claims.Service)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthFailuresTotal.WithLabelValues("no_grant").Inc()
			return "", echo.NewHTTPError(http.StatusForbidden, "user has no access to this service")
		}
		return "", err
	}

	if cache != nil {
		_ = cache.SetRole(ctx, claims.Username, claims.Service, m.Grant.Role)
	}
	return m.Grant.Role, nil
}

// tokenError maps verification failures to 403 responses. Expired and
// malformed tokens carry distinguishing messages but share the status code.
func tokenError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		metrics.AuthFailuresTotal.WithLabelValues("expired_token").Inc()
		return echo.NewHTTPError(http.StatusForbidden, "jwt is expired, please get a new one")
	case errors.Is(err, domain.ErrTokenMissingClaims):
		metrics.AuthFailuresTotal.WithLabelValues("missing_claims").Inc()
		return echo.NewHTTPError(http.StatusForbidden, "unable to get user by jwt: token is malformed")
	case errors.Is(err, domain.ErrTokenMalformed):
		metrics.AuthFailuresTotal.WithLabelValues("malformed_token").Inc()
		return echo.NewHTTPError(http.StatusForbidden, "unable to get user by jwt: token is malformed")
	default:
		return err
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/identware/identity-api/internal/core/domain"
	"github.com/identware/identity-api/internal/core/ports"
	"github.com/identware/identity-api/internal/core/service"
)

// stubDirectory resolves memberships from a static (username, service) map.
// Only the lookups the middleware uses are functional.
type stubDirectory struct {
	memberships map[string]map[string]domain.Role
	lookups     int
}

var _ ports.DirectoryRepository = (*stubDirectory)(nil)

func (r *stubDirectory) FindByUsernameInService(_ context.Context, username, svc string) (*domain.Membership, error) {
	r.lookups++
	role, ok := r.memberships[username][svc]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.Membership{
		User:  domain.User{ID: 1, Username: username},
		Grant: domain.RoleGrant{UserID: 1, Role: role, Service: svc},
	}, nil
}

func (r *stubDirectory) FindByEmailInService(context.Context, string, string) (*domain.Membership, error) {
	return nil, domain.ErrUserNotFound
}

func (r *stubDirectory) FindByUsername(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r *stubDirectory) CountInService(context.Context, string) (int64, error) { return 0, nil }

func (r *stubDirectory) ListInService(context.Context, string, int, int) ([]domain.Membership, error) {
	return nil, nil
}

func (r *stubDirectory) Create(context.Context, string, string, string) (*domain.User, error) {
	return nil, nil
}

func (r *stubDirectory) UpsertGrant(context.Context, int64, domain.Role, string) error { return nil }

func (r *stubDirectory) Delete(context.Context, string) (bool, error) { return false, nil }

// stubRoleCache is a tiny in-memory ports.RoleCache.
type stubRoleCache struct {
	roles map[string]domain.Role
	sets  int
}

var _ ports.RoleCache = (*stubRoleCache)(nil)

func (c *stubRoleCache) GetRole(_ context.Context, username, svc string) (domain.Role, bool, error) {
	role, ok := c.roles[username+"/"+svc]
	return role, ok, nil
}

func (c *stubRoleCache) SetRole(_ context.Context, username, svc string, role domain.Role) error {
	c.sets++
	if c.roles == nil {
		c.roles = make(map[string]domain.Role)
	}
	c.roles[username+"/"+svc] = role
	return nil
}

func (c *stubRoleCache) Invalidate(_ context.Context, username, svc string) error {
	delete(c.roles, username+"/"+svc)
	return nil
}

func signedToken(t *testing.T, tokens ports.TokenService, username, svc string) string {
	t.Helper()
	token, err := tokens.Issue(username, svc)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func newAuthContext(e *echo.Echo, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpStatus(t *testing.T, err error) (int, string) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	msg, _ := he.Message.(string)
	return he.Code, msg
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	tokens := service.NewTokenService("secret", time.Hour)
	repo := &stubDirectory{memberships: map[string]map[string]domain.Role{
		"alice": {"svc-a": domain.RoleAdmin},
	}}

	c, rec := newAuthContext(e, "Bearer "+signedToken(t, tokens, "alice", "svc-a"))

	called := false
	handler := Auth(tokens, repo, nil)(func(c echo.Context) error {
		called = true
		if c.Get(CtxUsername) != "alice" {
			t.Fatalf("username not set")
		}
		if c.Get(CtxService) != "svc-a" {
			t.Fatalf("service not set")
		}
		if c.Get(CtxRole) != "admin" {
			t.Fatalf("role not set, got %v", c.Get(CtxRole))
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	tokens := service.NewTokenService("secret", time.Hour)

	c, _ := newAuthContext(e, "")
	handler := Auth(tokens, &stubDirectory{}, nil)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	code, msg := httpStatus(t, handler(c))
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if msg != "jwt must not be empty" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	e := echo.New()
	tokens := service.NewTokenService("secret", time.Hour)

	c, _ := newAuthContext(e, "Token abc")
	handler := Auth(tokens, &stubDirectory{}, nil)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	code, msg := httpStatus(t, handler(c))
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if msg != "invalid authorization header" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestAuthMiddleware_MalformedToken(t *testing.T) {
	e := echo.New()
	tokens := service.NewTokenService("secret", time.Hour)

	c, _ := newAuthContext(e, "Bearer not-a-token")
	handler := Auth(tokens, &stubDirectory{}, nil)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	code, msg := httpStatus(t, handler(c))
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if msg != "unable to get user by jwt: token is malformed" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	e := echo.New()
	// issued already past its leeway-adjusted expiry
	expired := service.NewTokenService("secret", -time.Minute)
	verifier := service.NewTokenService("secret", time.Hour)

	c, _ := newAuthContext(e, "Bearer "+signedToken(t, expired, "alice", "svc-a"))
	handler := Auth(verifier, &stubDirectory{}, nil)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	code, msg := httpStatus(t, handler(c))
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if msg != "jwt is expired, please get a new one" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestAuthMiddleware_NoGrantForService(t *testing.T) {
	e := echo.New()
	tokens := service.NewTokenService("secret", time.Hour)
	// alice has a grant, but only in svc-b
	repo := &stubDirectory{memberships: map[string]map[string]domain.Role{
		"alice": {"svc-b": domain.RoleAdmin},
	}}

	c, _ := newAuthContext(e, "Bearer "+signedToken(t, tokens, "alice", "svc-a"))
	handler := Auth(tokens, repo, nil)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	code, msg := httpStatus(t, handler(c))
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if msg != "user has no access to this service" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestAuthMiddleware_CacheHitSkipsRepository(t *testing.T) {
	e := echo.New()
	tokens := service.NewTokenService("secret", time.Hour)
	repo := &stubDirectory{}
	cache := &stubRoleCache{roles: map[string]domain.Role{
		"alice/svc-a": domain.RoleClient,
	}}

	c, _ := newAuthContext(e, "Bearer "+signedToken(t, tokens, "alice", "svc-a"))
	handler := Auth(tokens, repo, cache)(func(c echo.Context) error {
		if c.Get(CtxRole) != "client" {
			t.Fatalf("expected cached role, got %v", c.Get(CtxRole))
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if repo.lookups != 0 {
		t.Fatalf("repository consulted despite cache hit")
	}
}

func TestAuthMiddleware_CacheMissFillsCache(t *testing.T) {
	e := echo.New()
	tokens := service.NewTokenService("secret", time.Hour)
	repo := &stubDirectory{memberships: map[string]map[string]domain.Role{
		"alice": {"svc-a": domain.RoleAdmin},
	}}
	cache := &stubRoleCache{}

	c, _ := newAuthContext(e, "Bearer "+signedToken(t, tokens, "alice", "svc-a"))
	handler := Auth(tokens, repo, cache)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if repo.lookups != 1 {
		t.Fatalf("expected one repository lookup, got %d", repo.lookups)
	}
	if cache.sets != 1 {
		t.Fatalf("role not written back to cache")
	}
}

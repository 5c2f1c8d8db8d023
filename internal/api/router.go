package api

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/identware/identity-api/internal/api/handler"
	"github.com/identware/identity-api/internal/api/middleware"
	"github.com/identware/identity-api/internal/core/domain"
	"github.com/identware/identity-api/internal/core/ports"
	"github.com/identware/identity-api/internal/core/service"
	"github.com/identware/identity-api/internal/infrastructure/db/postgres"
	redisdb "github.com/identware/identity-api/internal/infrastructure/db/redis"
	"github.com/identware/identity-api/internal/infrastructure/http/handlers"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// rdb may be nil; the role cache is then disabled and authorization always
// reads through to the directory.
func NewRouter(pool *pgxpool.Pool, rdb *redis.Client, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	repo := postgres.NewDirectoryRepository(pool)
	var cache ports.RoleCache
	if rdb != nil {
		cache = redisdb.NewRoleCache(rdb)
	}

	tokens := service.NewTokenService(jwtSecret, 24*time.Hour)
	authService := service.NewAuthService(repo, tokens, log)
	userService := service.NewUserService(repo, cache, log)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	authMiddleware := middleware.Auth(tokens, repo, cache)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Token issuance (no auth required) ---
	e.POST("/jwt", authHandler.IssueJWT)

	// --- Admin-gated user directory ---
	users := e.Group("/users", authMiddleware, adminOnly)
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.PUT("/access", userHandler.ChangeAccess)
	users.DELETE("", userHandler.Delete)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(pool, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	return e
}

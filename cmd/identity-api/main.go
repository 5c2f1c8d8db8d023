// Identity directory API: a multi-tenant user directory issuing
// service-scoped bearer tokens and exposing role-gated user administration.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/identware/identity-api/internal/api"
	"github.com/identware/identity-api/internal/infrastructure/config"
	"github.com/identware/identity-api/internal/infrastructure/db/postgres"
	redisdb "github.com/identware/identity-api/internal/infrastructure/db/redis"
	"github.com/identware/identity-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so failures can be
// surfaced as errors and exit codes handled in one place.
func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		// Missing DB credentials land here and abort startup. A missing
		// SECRET_KEY does not: token operations fail lazily instead.
		return err
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting identity api")
	if cfg.SecretKey == "" {
		log.Warn().Msg("SECRET_KEY is unset; token issuance and verification will fail until it is provided")
	}

	pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.DB.DSN()})
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().Str("host", cfg.DB.Host).Str("database", cfg.DB.Name).Msg("postgres connected")

	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("database migrations complete")

	if cfg.Seed.Enabled() {
		if err := postgres.SeedAdmin(ctx, pool, cfg.Seed.Username, cfg.Seed.Password, cfg.Seed.Service); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		log.Info().Str("username", cfg.Seed.Username).Str("service", cfg.Seed.Service).Msg("admin seeded")
	}

	// The role cache is optional: without REDIS_ADDR, or when redis is
	// unreachable at boot, authorization reads through to Postgres.
	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, role cache disabled")
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	e := api.NewRouter(pool, rdb, cfg.SecretKey, log)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	return redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
}

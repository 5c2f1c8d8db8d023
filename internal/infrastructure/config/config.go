package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all process configuration. Database settings are required and
// their absence aborts startup; SECRET_KEY is deliberately optional: token
// issuance and verification fail at call time without it, but the process
// still starts and serves everything else.
type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	SecretKey string `env:"SECRET_KEY"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	DB    DBConfig
	Redis RedisConfig
	Seed  SeedConfig
}

type DBConfig struct {
	User string `env:"DB_USER, required"`
	Pass string `env:"DB_PASS, required"`
	Host string `env:"DB_HOST, required"`
	Port int    `env:"DB_PORT, default=5432"`
	Name string `env:"DB_NAME, required"`
}

// DSN assembles the Postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Pass), c.Host, c.Port, c.Name)
}

// RedisConfig configures the optional role cache. An empty Addr disables it.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// SeedConfig describes the bootstrap admin created at startup when all three
// fields are set. The insert is idempotent, so restarts are safe.
type SeedConfig struct {
	Username string `env:"SEED_ADMIN_USERNAME"`
	Password string `env:"SEED_ADMIN_PASSWORD"`
	Service  string `env:"SEED_ADMIN_SERVICE"`
}

// Enabled reports whether startup seeding is configured.
func (c SeedConfig) Enabled() bool {
	return c.Username != "" && c.Password != "" && c.Service != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

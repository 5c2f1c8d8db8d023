package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/identware/identity-api/internal/core/domain"
)

// roleCacheTTL bounds how long a revoked or changed role can still be served
// from cache on a node that missed the invalidation.
const roleCacheTTL = 30 * time.Second

// RoleCache caches resolved role grants in Redis.
// Key format: role:<service>:<username>
type RoleCache struct {
	client *redis.Client
}

// NewRoleCache creates a RoleCache wrapping the given Redis client.
func NewRoleCache(client *redis.Client) *RoleCache {
	return &RoleCache{client: client}
}

// GetRole returns the cached role for (username, service), if present.
func (c *RoleCache) GetRole(ctx context.Context, username, service string) (domain.Role, bool, error) {
	val, err := c.client.Get(ctx, c.key(username, service)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("role cache get: %w", err)
	}
	return domain.Role(val), true, nil
}

// SetRole stores the role for (username, service), expiring after roleCacheTTL.
func (c *RoleCache) SetRole(ctx context.Context, username, service string, role domain.Role) error {
	return c.client.Set(ctx, c.key(username, service), string(role), roleCacheTTL).Err()
}

// Invalidate drops the entry for (username, service).
func (c *RoleCache) Invalidate(ctx context.Context, username, service string) error {
	return c.client.Del(ctx, c.key(username, service)).Err()
}

func (c *RoleCache) key(username, service string) string {
	return fmt.Sprintf("role:%s:%s", service, username)
}

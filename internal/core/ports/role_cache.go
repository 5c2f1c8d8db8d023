package ports

import (
	"context"

	"github.com/identware/identity-api/internal/core/domain"
)

// RoleCache is an optional read-through cache in front of the per-request
// grant lookup. Entries are short-lived and are invalidated whenever a grant
// for the (username, service) pair changes. A nil RoleCache disables caching.
type RoleCache interface {
	// GetRole returns the cached role and whether the entry was present.
	GetRole(ctx context.Context, username, service string) (domain.Role, bool, error)

	// SetRole stores the role for (username, service) with the cache TTL.
	SetRole(ctx context.Context, username, service string, role domain.Role) error

	// Invalidate drops the entry for (username, service), if any.
	Invalidate(ctx context.Context, username, service string) error
}

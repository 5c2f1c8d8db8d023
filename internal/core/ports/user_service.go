package ports

import (
	"context"

	"github.com/identware/identity-api/internal/core/domain"
)

// ListUsersInput carries the pagination parameters for a user listing,
// already resolved to the acting admin's service.
type ListUsersInput struct {
	Service  string
	Page     int // 1-based
	PageSize int
}

// UserSummary is the per-row view returned by ListUsers.
type UserSummary struct {
	Username string
	Email    string
	Role     domain.Role
}

// ListUsersResult is returned by ListUsers. IsFinalPage is true when
// offset+limit reaches the total count for the service.
type ListUsersResult struct {
	Users       []UserSummary
	IsFinalPage bool
}

// UserAdminService defines the role-gated directory operations. Every call is
// scoped to the service resolved from the acting admin's token; none may
// observe or mutate another tenant's memberships.
type UserAdminService interface {
	ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersResult, error)

	// CreateUser registers username with an initial "client" grant in service.
	CreateUser(ctx context.Context, username, password, service string) error

	// ChangeAccess sets the target's role within service, creating the grant
	// when the target is not yet a member. The target is resolved by
	// unscoped username lookup.
	ChangeAccess(ctx context.Context, username string, role domain.Role, service string) error

	// DeleteUser removes the target user. The target must hold a grant in
	// service; otherwise the call fails with domain.ErrForbidden.
	DeleteUser(ctx context.Context, username, service string) error
}

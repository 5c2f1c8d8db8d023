package ports

import (
	"context"

	"github.com/identware/identity-api/internal/core/domain"
)

// DirectoryRepository defines persistence for users and their role grants.
//
// Every lookup that takes a service parameter is tenant-scoped: it joins
// through the grants table and must never return a user who has no grant in
// that service, even when the username or email exists globally.
type DirectoryRepository interface {
	// FindByUsernameInService returns the user and their single grant for
	// service, or domain.ErrUserNotFound.
	FindByUsernameInService(ctx context.Context, username, service string) (*domain.Membership, error)

	// FindByEmailInService is the email-keyed counterpart of
	// FindByUsernameInService.
	FindByEmailInService(ctx context.Context, email, service string) (*domain.Membership, error)

	// FindByUsername is the unscoped lookup used to resolve grant-change
	// targets regardless of current service membership.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// CountInService returns the number of users holding a grant in service.
	CountInService(ctx context.Context, service string) (int64, error)

	// ListInService returns an ordered page of memberships for service.
	ListInService(ctx context.Context, service string, limit, offset int) ([]domain.Membership, error)

	// Create inserts the user together with a single "client" grant for
	// service in one transaction. Returns domain.ErrUserExists when the
	// username or email is already taken.
	Create(ctx context.Context, username, passwordHash, service string) (*domain.User, error)

	// UpsertGrant inserts a grant for (userID, service), or overwrites the
	// role of the existing one. The write is a single conflict-resolving
	// statement, never a read-then-write.
	UpsertGrant(ctx context.Context, userID int64, role domain.Role, service string) error

	// Delete removes the user by username, cascading all of their grants.
	// It reports whether a row was actually removed.
	Delete(ctx context.Context, username string) (bool, error)
}

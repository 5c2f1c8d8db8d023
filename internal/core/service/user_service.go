package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/identware/identity-api/internal/api/metrics"
	"github.com/identware/identity-api/internal/core/domain"
	"github.com/identware/identity-api/internal/core/ports"
)

const defaultPageSize = 100

// UserService implements the role-gated directory operations. Every method
// receives the service already resolved from the acting admin's token and
// scopes its queries to it.
type UserService struct {
	repo   ports.DirectoryRepository
	cache  ports.RoleCache // may be nil
	logger zerolog.Logger
}

func NewUserService(repo ports.DirectoryRepository, cache ports.RoleCache, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, cache: cache, logger: logger}
}

// ListUsers returns one page of the service's members. Pages are 1-indexed;
// the final page is the one whose offset+limit reaches the member count.
func (s *UserService) ListUsers(ctx context.Context, input ports.ListUsersInput) (*ports.ListUsersResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.PageSize
	if limit < 0 {
		limit = defaultPageSize
	}
	offset := (page - 1) * limit

	count, err := s.repo.CountInService(ctx, input.Service)
	if err != nil {
		return nil, err
	}

	memberships, err := s.repo.ListInService(ctx, input.Service, limit, offset)
	if err != nil {
		return nil, err
	}

	result := &ports.ListUsersResult{
		Users:       make([]ports.UserSummary, 0, len(memberships)),
		IsFinalPage: int64(offset+limit) >= count,
	}
	for _, m := range memberships {
		result.Users = append(result.Users, ports.UserSummary{
			Username: m.User.Username,
			Email:    m.User.Email,
			Role:     m.Grant.Role,
		})
	}
	return result, nil
}

// CreateUser registers a new user with an initial "client" grant in service.
func (s *UserService) CreateUser(ctx context.Context, username, password, service string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if _, err := s.repo.Create(ctx, username, string(hash), service); err != nil {
		return err
	}

	metrics.UsersCreatedTotal.Inc()
	s.logger.Info().Str("username", username).Str("service", service).Msg("user created")
	return nil
}

// ChangeAccess sets the target's role within service. The target is resolved
// by unscoped lookup: an admin may grant access to a user who is not yet a
// member of their service. The write is a single upsert, so two concurrent
// changes for the same (user, service) resolve in the store, never as a
// duplicate grant.
func (s *UserService) ChangeAccess(ctx context.Context, username string, role domain.Role, service string) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}

	target, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertGrant(ctx, target.ID, role, service); err != nil {
		return err
	}
	s.invalidateCachedRole(ctx, username, service)

	metrics.RoleChangesTotal.WithLabelValues(string(role)).Inc()
	s.logger.Info().
		Str("username", username).
		Str("service", service).
		Str("role", string(role)).
		Msg("access changed")
	return nil
}

// DeleteUser removes the target user entirely, cascading their grants in all
// services. Only members of the acting admin's service may be deleted; a
// non-member target is rejected without revealing whether the username exists
// elsewhere.
func (s *UserService) DeleteUser(ctx context.Context, username, service string) error {
	if _, err := s.repo.FindByUsernameInService(ctx, username, service); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrForbidden
		}
		return err
	}

	if _, err := s.repo.Delete(ctx, username); err != nil {
		return err
	}
	s.invalidateCachedRole(ctx, username, service)

	metrics.UsersDeletedTotal.Inc()
	s.logger.Info().Str("username", username).Str("service", service).Msg("user deleted")
	return nil
}

// invalidateCachedRole drops the cached grant after a mutation. Cache errors
// are logged, not returned: the entry expires on its own TTL anyway.
func (s *UserService) invalidateCachedRole(ctx context.Context, username, service string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, username, service); err != nil {
		s.logger.Warn().Err(err).
			Str("username", username).
			Str("service", service).
			Msg("role cache invalidation failed")
	}
}

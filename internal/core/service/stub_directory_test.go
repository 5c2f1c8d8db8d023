package service

import (
	"context"
	"sort"

	"golang.org/x/crypto/bcrypt"

	"github.com/identware/identity-api/internal/core/domain"
	"github.com/identware/identity-api/internal/core/ports"
)

// stubDirectory is an in-memory ports.DirectoryRepository that mimics the
// store's constraints: unique usernames/emails, at most one grant per
// (user, service), cascade-delete of grants.
type stubDirectory struct {
	nextID int64
	users  map[string]*domain.User           // by username
	grants map[string]map[string]domain.Role // username -> service -> role
}

var _ ports.DirectoryRepository = (*stubDirectory)(nil)

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		users:  make(map[string]*domain.User),
		grants: make(map[string]map[string]domain.Role),
	}
}

// add seeds a user with a bcrypt-hashed password and one grant.
func (r *stubDirectory) add(username, email, password string, role domain.Role, service string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	r.nextID++
	r.users[username] = &domain.User{
		ID:           r.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	r.grants[username] = map[string]domain.Role{service: role}
}

func (r *stubDirectory) membership(username, service string) (*domain.Membership, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	role, ok := r.grants[username][service]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.Membership{
		User:  *u,
		Grant: domain.RoleGrant{UserID: u.ID, Role: role, Service: service},
	}, nil
}

func (r *stubDirectory) FindByUsernameInService(_ context.Context, username, service string) (*domain.Membership, error) {
	return r.membership(username, service)
}

func (r *stubDirectory) FindByEmailInService(_ context.Context, email, service string) (*domain.Membership, error) {
	for username, u := range r.users {
		if u.Email != "" && u.Email == email {
			return r.membership(username, service)
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubDirectory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubDirectory) CountInService(_ context.Context, service string) (int64, error) {
	var count int64
	for username := range r.users {
		if _, ok := r.grants[username][service]; ok {
			count++
		}
	}
	return count, nil
}

func (r *stubDirectory) ListInService(_ context.Context, service string, limit, offset int) ([]domain.Membership, error) {
	var members []domain.Membership
	for username := range r.users {
		if m, err := r.membership(username, service); err == nil {
			members = append(members, *m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].User.ID < members[j].User.ID })

	if offset >= len(members) {
		return nil, nil
	}
	members = members[offset:]
	if limit < len(members) {
		members = members[:limit]
	}
	return members, nil
}

func (r *stubDirectory) Create(_ context.Context, username, passwordHash, service string) (*domain.User, error) {
	if _, exists := r.users[username]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	u := &domain.User{ID: r.nextID, Username: username, PasswordHash: passwordHash}
	r.users[username] = u
	r.grants[username] = map[string]domain.Role{service: domain.RoleClient}
	clone := *u
	return &clone, nil
}

func (r *stubDirectory) UpsertGrant(_ context.Context, userID int64, role domain.Role, service string) error {
	for username, u := range r.users {
		if u.ID == userID {
			// map assignment is the conflict-replace: one entry per service
			r.grants[username][service] = role
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubDirectory) Delete(_ context.Context, username string) (bool, error) {
	if _, ok := r.users[username]; !ok {
		return false, nil
	}
	delete(r.users, username)
	delete(r.grants, username)
	return true, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/identware/identity-api/internal/core/domain"
)

// uniqueViolation is the SQLSTATE raised when an insert hits a unique
// constraint.
const uniqueViolation = "23505"

// DirectoryRepository is the Postgres implementation of
// ports.DirectoryRepository. Tenant isolation is structural: every scoped
// query joins users to roles_in_services and filters on the service column,
// so a row without a grant in the target service can never be returned.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

const membershipColumns = `
	u.id, u.username, COALESCE(u.email, ''), u.password_hash,
	r.id, r.user_id, r.role, r.service`

func (d *DirectoryRepository) FindByUsernameInService(ctx context.Context, username, service string) (*domain.Membership, error) {
	query := `
		SELECT` + membershipColumns + `
		FROM users u
		JOIN roles_in_services r ON r.user_id = u.id
		WHERE u.username = $1 AND r.service = $2`
	return d.queryMembership(ctx, query, username, service)
}

func (d *DirectoryRepository) FindByEmailInService(ctx context.Context, email, service string) (*domain.Membership, error) {
	query := `
		SELECT` + membershipColumns + `
		FROM users u
		JOIN roles_in_services r ON r.user_id = u.id
		WHERE u.email = $1 AND r.service = $2`
	return d.queryMembership(ctx, query, email, service)
}

func (d *DirectoryRepository) queryMembership(ctx context.Context, query string, args ...any) (*domain.Membership, error) {
	var m domain.Membership
	err := d.pool.QueryRow(ctx, query, args...).Scan(
		&m.User.ID, &m.User.Username, &m.User.Email, &m.User.PasswordHash,
		&m.Grant.ID, &m.Grant.UserID, &m.Grant.Role, &m.Grant.Service,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return &m, nil
}

func (d *DirectoryRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
		SELECT id, username, COALESCE(email, ''), password_hash
		FROM users
		WHERE username = $1`

	var u domain.User
	err := d.pool.QueryRow(ctx, query, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (d *DirectoryRepository) CountInService(ctx context.Context, service string) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM users u
		JOIN roles_in_services r ON r.user_id = u.id
		WHERE r.service = $1`

	var count int64
	if err := d.pool.QueryRow(ctx, query, service).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (d *DirectoryRepository) ListInService(ctx context.Context, service string, limit, offset int) ([]domain.Membership, error) {
	query := `
		SELECT` + membershipColumns + `
		FROM users u
		JOIN roles_in_services r ON r.user_id = u.id
		WHERE r.service = $1
		ORDER BY u.id
		LIMIT $2 OFFSET $3`

	rows, err := d.pool.Query(ctx, query, service, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(
			&m.User.ID, &m.User.Username, &m.User.Email, &m.User.PasswordHash,
			&m.Grant.ID, &m.Grant.UserID, &m.Grant.Role, &m.Grant.Service,
		); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return memberships, nil
}

// Create inserts the user and their initial "client" grant in one
// transaction, so a user can never exist without a membership.
func (d *DirectoryRepository) Create(ctx context.Context, username, passwordHash, service string) (*domain.User, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var u domain.User
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		username, passwordHash,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO roles_in_services (user_id, role, service) VALUES ($1, $2, $3)`,
		u.ID, domain.RoleClient, service,
	)
	if err != nil {
		return nil, fmt.Errorf("insert grant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	u.Username = username
	u.PasswordHash = passwordHash
	return &u, nil
}

// UpsertGrant relies on the store's native conflict resolution: the unique
// constraint on (user_id, service) turns a second grant for the same pair
// into a role update, atomically.
func (d *DirectoryRepository) UpsertGrant(ctx context.Context, userID int64, role domain.Role, service string) error {
	const query = `
		INSERT INTO roles_in_services (user_id, role, service)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT roles_in_services_user_id_service_key
		DO UPDATE SET role = EXCLUDED.role`

	if _, err := d.pool.Exec(ctx, query, userID, role, service); err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

// Delete removes the user row; the foreign-key cascade removes every grant.
func (d *DirectoryRepository) Delete(ctx context.Context, username string) (bool, error) {
	tag, err := d.pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

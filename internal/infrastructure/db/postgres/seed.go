package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/identware/identity-api/internal/core/domain"
)

// SeedAdmin idempotently bootstraps an admin user with a grant in service.
// Existing rows are left untouched (ON CONFLICT DO NOTHING), so the password
// of an already-seeded admin is never overwritten on restart.
func SeedAdmin(ctx context.Context, pool *pgxpool.Pool, username, password, service string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING`,
		username, string(hash))
	if err != nil {
		return fmt.Errorf("seed: insert user: %w", err)
	}

	var userID int64
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, username).Scan(&userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("seed: user %q not found after insert", username)
		}
		return fmt.Errorf("seed: lookup user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO roles_in_services (user_id, role, service)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT roles_in_services_user_id_service_key DO NOTHING`,
		userID, domain.RoleAdmin, service)
	if err != nil {
		return fmt.Errorf("seed: insert grant: %w", err)
	}

	return tx.Commit(ctx)
}

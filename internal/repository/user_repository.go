package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-ledger-api/internal/models"
)

// UserRepository handles persistence of application users. It doubles as
// the role-membership store behind the access-control boundary.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, role, active, created_at, updated_at FROM users WHERE email = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, role, active, created_at, updated_at FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// GrantRole updates a user's role. Granting an already-held role is a
// no-op, which keeps repeated grants harmless.
func (r *UserRepository) GrantRole(ctx context.Context, id string, role models.UserRole) error {
	const query = `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1 AND role <> $2`
	if _, err := r.db.ExecContext(ctx, query, id, role, time.Now().UTC()); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

// HasRole reports whether the user currently holds the role.
func (r *UserRepository) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = $2 AND active)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, id, role); err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return ok, nil
}

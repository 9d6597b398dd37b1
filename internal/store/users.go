package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail resolves the caller's identity. Soft-deleted users are excluded:
// a deleted account can no longer shop, even though its orders survive.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, created_at
		FROM users
		WHERE email = $1 AND deleted_at IS NULL
	`, email).Scan(&user.ID, &user.Email, &user.FullName, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, created_at, deleted_at
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.FullName, &user.CreatedAt, &user.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inventory-rest-api/internal/model"
)

type userRepository struct {
	q dbtx
	d dialect
}

// Create inserts a user. A taken email yields ErrDuplicate.
func (r *userRepository) Create(ctx context.Context, u *model.User) (int64, error) {
	u.CreatedAt = time.Now().UTC()

	query := r.d.rebind(`INSERT INTO users (name, email, password, created_at) VALUES (?, ?, ?, ?)`)
	id, err := r.d.insert(ctx, r.q, query, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if r.d.isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	u.ID = id
	return id, nil
}

// GetByEmail finds a user by exact email, or returns (nil, nil).
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := r.d.rebind(`SELECT id, name, email, password, created_at FROM users WHERE email = ?`)

	var u model.User
	err := r.q.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

var _ UserRepository = (*userRepository)(nil)

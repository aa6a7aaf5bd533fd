package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dockerdb/mongo-init/internal/model"
)

// Common errors for admin repository operations.
var (
	ErrAdminNotFound = errors.New("admin not found")
	ErrEmailExists   = errors.New("email already exists")
)

// CreateAdmin inserts a new administrator into the users table.
func (r *Repository) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	query := `
		INSERT INTO users (id, email, password_hash, token, active, admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		admin.ID,
		admin.Email,
		admin.PasswordHash,
		admin.Token,
		admin.Active,
		admin.Admin,
		admin.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

// GetAdminByEmail retrieves an administrator by email address.
func (r *Repository) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	query := `
		SELECT id, email, password_hash, token, active, admin, created_at
		FROM users
		WHERE email = $1
	`

	var admin model.Admin
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Token,
		&admin.Active,
		&admin.Admin,
		&admin.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin by email: %w", err)
	}

	return &admin, nil
}

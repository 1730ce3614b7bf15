package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"creditgate/internal/models"
)

// AdminUserRepository handles admin user database operations
type AdminUserRepository struct {
	db *DB
}

// NewAdminUserRepository creates a new admin user repository
func NewAdminUserRepository(db *DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// GetByEmail retrieves an admin user by email
func (r *AdminUserRepository) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var user models.AdminUser
	query := `
		SELECT id, email, password_hash, enabled, last_login_at, created_at, updated_at
		FROM admin_users
		WHERE email = $1
	`

	err := r.db.conn.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAdminUserNotFound
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return &user, nil
}

// GetByID retrieves an admin user by ID
func (r *AdminUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	var user models.AdminUser
	query := `
		SELECT id, email, password_hash, enabled, last_login_at, created_at, updated_at
		FROM admin_users
		WHERE id = $1
	`

	err := r.db.conn.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAdminUserNotFound
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return &user, nil
}

// Create creates a new admin user
func (r *AdminUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	query := `
		INSERT INTO admin_users (id, email, password_hash, enabled)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := r.db.conn.QueryRowxContext(
		ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Enabled,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}

// Count returns the number of admin users
func (r *AdminUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM admin_users`); err != nil {
		return 0, fmt.Errorf("failed to count admin users: %w", err)
	}
	return count, nil
}

// UpdateLastLogin stamps the admin user's last login timestamp
func (r *AdminUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.conn.ExecContext(ctx,
		`UPDATE admin_users SET last_login_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

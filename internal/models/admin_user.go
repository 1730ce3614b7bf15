package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is a human operator account for the admin surface.
// Authentication is email/password with bcrypt hashing.
type AdminUser struct {
	ID           uuid.UUID  `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"` // bcrypt hash
	Enabled      bool       `db:"enabled"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// IsValid reports whether the account may log in.
func (u *AdminUser) IsValid() bool {
	return u.Enabled
}

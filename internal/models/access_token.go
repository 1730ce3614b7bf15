package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AccessToken is a long-lived bearer secret issued to one tenant for
// non-session clients (editor extensions, public API consumers). Only
// the SHA-256 hash of the secret is stored; the plaintext is shown once
// at creation and never again.
type AccessToken struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	TenantID       uuid.UUID      `db:"tenant_id" json:"tenant_id"`
	Name           string         `db:"name" json:"name"`
	SecretHash     string         `db:"secret_hash" json:"-"`
	AllowedDomains pq.StringArray `db:"allowed_domains" json:"allowed_domains"` // empty = any origin
	IsActive       bool           `db:"is_active" json:"is_active"`
	ExpiresAt      *time.Time     `db:"expires_at" json:"expires_at"`
	LastUsedAt     *time.Time     `db:"last_used_at" json:"last_used_at"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// IsExpired reports whether the token has expired at the given instant.
// The boundary is exclusive: a token expiring exactly now is expired.
func (t *AccessToken) IsExpired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return !t.ExpiresAt.After(now)
}

// IsValid reports whether the token may authenticate at the given instant.
func (t *AccessToken) IsValid(now time.Time) bool {
	return t.IsActive && !t.IsExpired(now)
}

// RestrictsOrigin reports whether an origin allow-list is configured.
func (t *AccessToken) RestrictsOrigin() bool {
	return len(t.AllowedDomains) > 0
}

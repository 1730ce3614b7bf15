package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderCredential holds one upstream provider's API secret, sealed
// with the vault master key. Ciphertext and IV are stored as separate
// base64 strings; plaintext is never persisted and is only decrypted
// just-in-time for a call.
type ProviderCredential struct {
	ID         uuid.UUID  `db:"id"`
	Provider   string     `db:"provider"` // unique, e.g. "openai"
	Ciphertext string     `db:"ciphertext"`
	IV         string     `db:"iv"`
	LastUsedAt *time.Time `db:"last_used_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

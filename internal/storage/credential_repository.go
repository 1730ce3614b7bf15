package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"creditgate/internal/models"
)

// CredentialRepository handles provider credential database operations.
// Rows hold only sealed secrets; plaintext never reaches this layer.
type CredentialRepository struct {
	db *DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// GetByProvider retrieves the credential for a provider name.
func (r *CredentialRepository) GetByProvider(ctx context.Context, provider string) (*models.ProviderCredential, error) {
	var cred models.ProviderCredential
	query := `
		SELECT id, provider, ciphertext, iv, last_used_at, created_at, updated_at
		FROM provider_credentials
		WHERE provider = $1
	`

	err := r.db.conn.GetContext(ctx, &cred, query, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return &cred, nil
}

// Upsert creates or replaces the credential for a provider name. One
// row per provider; re-sealing on key rotation goes through here too.
func (r *CredentialRepository) Upsert(ctx context.Context, cred *models.ProviderCredential) error {
	query := `
		INSERT INTO provider_credentials (id, provider, ciphertext, iv)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider) DO UPDATE
		SET ciphertext = EXCLUDED.ciphertext, iv = EXCLUDED.iv, updated_at = now()
		RETURNING id, created_at, updated_at
	`

	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}

	err := r.db.conn.QueryRowxContext(
		ctx, query,
		cred.ID, cred.Provider, cred.Ciphertext, cred.IV,
	).Scan(&cred.ID, &cred.CreatedAt, &cred.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}

	return nil
}

// List returns all credentials, ordered by provider name. Callers must
// not expose ciphertext or iv outside the admin surface.
func (r *CredentialRepository) List(ctx context.Context) ([]*models.ProviderCredential, error) {
	query := `
		SELECT id, provider, ciphertext, iv, last_used_at, created_at, updated_at
		FROM provider_credentials
		ORDER BY provider
	`

	var creds []*models.ProviderCredential
	if err := r.db.conn.SelectContext(ctx, &creds, query); err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	return creds, nil
}

// Delete removes a provider's credential. Catalog entries for that
// provider keep existing and degrade to "not configured".
func (r *CredentialRepository) Delete(ctx context.Context, provider string) error {
	result, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM provider_credentials WHERE provider = $1`, provider)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCredentialNotFound
	}

	return nil
}

// TouchLastUsed stamps the credential's last-used timestamp. Invoked by
// the touch worker off the request path.
func (r *CredentialRepository) TouchLastUsed(ctx context.Context, provider string) error {
	_, err := r.db.conn.ExecContext(ctx,
		`UPDATE provider_credentials SET last_used_at = now() WHERE provider = $1`, provider)
	if err != nil {
		return fmt.Errorf("failed to touch credential: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"creditgate/internal/models"
)

const tokenColumns = `
	id, tenant_id, name, secret_hash, allowed_domains,
	is_active, expires_at, last_used_at, created_at
`

// TokenRepository handles access token database operations. Secrets are
// stored only as SHA-256 hashes.
type TokenRepository struct {
	db *DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a new access token. The caller hashes the secret; the
// plaintext is shown to the owner once and never persisted.
func (r *TokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	query := `
		INSERT INTO access_tokens (id, tenant_id, name, secret_hash, allowed_domains, is_active, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	err := r.db.conn.QueryRowxContext(
		ctx, query,
		token.ID, token.TenantID, token.Name, token.SecretHash,
		token.AllowedDomains, token.IsActive, token.ExpiresAt,
	).Scan(&token.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}

	return nil
}

// GetBySecretHash looks a token up by the hash of its presented secret.
// A hash hit is an exact secret match. Results are cached; mutations
// invalidate so revocation takes effect immediately.
func (r *TokenRepository) GetBySecretHash(ctx context.Context, secretHash string) (*models.AccessToken, error) {
	cacheKey := "token:" + secretHash
	if cached, ok := r.db.tokenCache.Get(cacheKey); ok {
		return cached.(*models.AccessToken), nil
	}

	var token models.AccessToken
	query := `SELECT ` + tokenColumns + ` FROM access_tokens WHERE secret_hash = $1`

	err := r.db.conn.GetContext(ctx, &token, query, secretHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	r.db.tokenCache.Set(cacheKey, &token)
	return &token, nil
}

// GetByID retrieves a token by ID.
func (r *TokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AccessToken, error) {
	var token models.AccessToken
	query := `SELECT ` + tokenColumns + ` FROM access_tokens WHERE id = $1`

	err := r.db.conn.GetContext(ctx, &token, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return &token, nil
}

// ListByTenant returns a tenant's tokens, newest first.
func (r *TokenRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.AccessToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM access_tokens
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	var tokens []*models.AccessToken
	if err := r.db.conn.SelectContext(ctx, &tokens, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list access tokens: %w", err)
	}

	return tokens, nil
}

// SetActive flips a token's active flag for the owning tenant and
// invalidates its cache slot.
func (r *TokenRepository) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error {
	var secretHash string
	err := r.db.conn.GetContext(ctx, &secretHash, `
		UPDATE access_tokens SET is_active = $3
		WHERE id = $1 AND tenant_id = $2
		RETURNING secret_hash
	`, id, tenantID, active)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to update access token: %w", err)
	}

	r.db.tokenCache.Delete("token:" + secretHash)
	return nil
}

// Delete removes a token for the owning tenant and invalidates its
// cache slot.
func (r *TokenRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	var secretHash string
	err := r.db.conn.GetContext(ctx, &secretHash, `
		DELETE FROM access_tokens
		WHERE id = $1 AND tenant_id = $2
		RETURNING secret_hash
	`, id, tenantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to delete access token: %w", err)
	}

	r.db.tokenCache.Delete("token:" + secretHash)
	return nil
}

// TouchLastUsed stamps the token's last-used timestamp. Invoked by the
// touch worker off the request path.
func (r *TokenRepository) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.conn.ExecContext(ctx,
		`UPDATE access_tokens SET last_used_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch access token: %w", err)
	}
	return nil
}

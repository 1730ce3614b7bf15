// Package auth verifies caller identity: access tokens for the
// external API and JWT sessions for the admin surface.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"creditgate/internal/models"
	"creditgate/internal/utils"
)

// ErrUnauthorized covers every token rejection: unknown, revoked,
// expired, origin mismatch, or suspended tenant. Callers get one
// indistinguishable error so responses leak nothing about which check
// failed.
var ErrUnauthorized = errors.New("unauthorized")

const secretPrefix = "ck_"

// TokenStore resolves hashed token secrets into stored tokens.
type TokenStore interface {
	GetBySecretHash(ctx context.Context, hash string) (*models.AccessToken, error)
}

// TenantStore loads token owners.
type TenantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// Toucher stamps last-used times without blocking the request.
type Toucher interface {
	TouchToken(ctx context.Context, id uuid.UUID)
}

// Authenticator verifies access tokens presented by external callers.
type Authenticator struct {
	tokens  TokenStore
	tenants TenantStore
	toucher Toucher
	logger  *utils.Logger
	now     func() time.Time
}

// NewAuthenticator creates an authenticator. A nil toucher disables
// last-used stamping.
func NewAuthenticator(tokens TokenStore, tenants TenantStore, toucher Toucher) *Authenticator {
	return &Authenticator{
		tokens:  tokens,
		tenants: tenants,
		toucher: toucher,
		logger:  utils.NewLogger("auth"),
		now:     time.Now,
	}
}

// Verify resolves a presented secret into its owning tenant. Origin and
// referer come from the request headers; a token with an allow-list
// rejects requests that carry neither. All rejections return
// ErrUnauthorized.
func (a *Authenticator) Verify(ctx context.Context, secret, origin, referer string) (*models.Tenant, error) {
	if secret == "" {
		return nil, ErrUnauthorized
	}

	token, err := a.tokens.GetBySecretHash(ctx, utils.HashString(secret))
	if err != nil {
		return nil, ErrUnauthorized
	}

	if !token.IsValid(a.now()) {
		return nil, ErrUnauthorized
	}

	if token.RestrictsOrigin() && !originAllowed(token.AllowedDomains, origin, referer) {
		return nil, ErrUnauthorized
	}

	tenant, err := a.tenants.GetByID(ctx, token.TenantID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !tenant.IsActive() {
		return nil, ErrUnauthorized
	}

	if a.toucher != nil {
		a.toucher.TouchToken(ctx, token.ID)
	}

	return tenant, nil
}

// originAllowed checks the request origin against the token's domain
// allow-list. The Origin header wins; Referer is the fallback. With an
// allow-list present and no usable host, the request fails closed.
func originAllowed(allowed []string, origin, referer string) bool {
	host := requestHost(origin)
	if host == "" {
		host = requestHost(referer)
	}
	if host == "" {
		return false
	}

	for _, domain := range allowed {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// requestHost extracts the lowercase hostname from a header value,
// dropping scheme, port, and path.
func requestHost(value string) string {
	if value == "" {
		return ""
	}
	u, err := url.Parse(value)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// GenerateSecret produces a new access token secret. The plaintext is
// shown to the tenant exactly once; only its hash is stored.
func GenerateSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token secret: %w", err)
	}
	return secretPrefix + hex.EncodeToString(buf), nil
}

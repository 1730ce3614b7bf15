package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditgate/internal/models"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

type mockTokenStore struct {
	tokens map[string]*models.AccessToken // secret hash -> token
}

func (m *mockTokenStore) GetBySecretHash(ctx context.Context, hash string) (*models.AccessToken, error) {
	token, ok := m.tokens[hash]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}
	return token, nil
}

type mockTenantStore struct {
	tenants map[uuid.UUID]*models.Tenant
}

func (m *mockTenantStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, ok := m.tenants[id]
	if !ok {
		return nil, storage.ErrTenantNotFound
	}
	return tenant, nil
}

type mockTokenToucher struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (m *mockTokenToucher) TouchToken(ctx context.Context, id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
}

type authFixture struct {
	auth    *Authenticator
	tokens  *mockTokenStore
	tenants *mockTenantStore
	toucher *mockTokenToucher
	now     time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		tokens:  &mockTokenStore{tokens: map[string]*models.AccessToken{}},
		tenants: &mockTenantStore{tenants: map[uuid.UUID]*models.Tenant{}},
		toucher: &mockTokenToucher{},
		now:     time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
	f.auth = NewAuthenticator(f.tokens, f.tenants, f.toucher)
	f.auth.now = func() time.Time { return f.now }
	return f
}

// addToken registers a token and its owning tenant, returning the
// plaintext secret.
func (f *authFixture) addToken(t *testing.T, mutate func(*models.AccessToken, *models.Tenant)) string {
	t.Helper()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	tenant := &models.Tenant{
		ID:              uuid.New(),
		Email:           "owner@example.com",
		AdvancedCredits: 100,
	}
	expires := f.now.Add(24 * time.Hour)
	token := &models.AccessToken{
		ID:         uuid.New(),
		TenantID:   tenant.ID,
		Name:       "test token",
		SecretHash: utils.HashString(secret),
		IsActive:   true,
		ExpiresAt:  &expires,
	}
	if mutate != nil {
		mutate(token, tenant)
	}

	f.tokens.tokens[token.SecretHash] = token
	f.tenants.tenants[tenant.ID] = tenant
	return secret
}

func TestVerifyHappyPath(t *testing.T) {
	f := newAuthFixture(t)
	secret := f.addToken(t, nil)

	tenant, err := f.auth.Verify(context.Background(), secret, "", "")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", tenant.Email)

	// The token got a last-used stamp.
	assert.Len(t, f.toucher.ids, 1)
}

func TestVerifyRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.AccessToken, *models.Tenant)
	}{
		{
			name:   "revoked token",
			mutate: func(tok *models.AccessToken, _ *models.Tenant) { tok.IsActive = false },
		},
		{
			name: "expired token",
			mutate: func(tok *models.AccessToken, _ *models.Tenant) {
				past := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
				tok.ExpiresAt = &past
			},
		},
		{
			name:   "suspended tenant",
			mutate: func(_ *models.AccessToken, tenant *models.Tenant) { tenant.Suspended = true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			secret := f.addToken(t, tt.mutate)

			_, err := f.auth.Verify(context.Background(), secret, "", "")
			require.ErrorIs(t, err, ErrUnauthorized)
			assert.Empty(t, f.toucher.ids)
		})
	}
}

func TestVerifyEmptyAndUnknownSecret(t *testing.T) {
	f := newAuthFixture(t)
	f.addToken(t, nil)

	_, err := f.auth.Verify(context.Background(), "", "", "")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.auth.Verify(context.Background(), "ck_0000000000000000000000000000000000000000000000ff", "", "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyExpiryBoundaryIsExclusive(t *testing.T) {
	f := newAuthFixture(t)

	// Expires exactly now: already expired.
	secret := f.addToken(t, func(tok *models.AccessToken, _ *models.Tenant) {
		at := f.now
		tok.ExpiresAt = &at
	})
	_, err := f.auth.Verify(context.Background(), secret, "", "")
	require.ErrorIs(t, err, ErrUnauthorized)

	// One second later: still valid.
	secret = f.addToken(t, func(tok *models.AccessToken, _ *models.Tenant) {
		at := f.now.Add(time.Second)
		tok.ExpiresAt = &at
	})
	_, err = f.auth.Verify(context.Background(), secret, "", "")
	require.NoError(t, err)
}

func TestVerifyNoExpiry(t *testing.T) {
	f := newAuthFixture(t)
	secret := f.addToken(t, func(tok *models.AccessToken, _ *models.Tenant) {
		tok.ExpiresAt = nil
	})

	_, err := f.auth.Verify(context.Background(), secret, "", "")
	require.NoError(t, err)
}

func TestVerifyOriginAllowList(t *testing.T) {
	tests := []struct {
		name    string
		domains []string
		origin  string
		referer string
		allowed bool
	}{
		{
			name:    "empty allow-list accepts any origin",
			domains: nil,
			origin:  "https://anywhere.test",
			allowed: true,
		},
		{
			name:    "empty allow-list accepts no headers",
			domains: nil,
			allowed: true,
		},
		{
			name:    "exact domain match",
			domains: []string{"example.com"},
			origin:  "https://example.com",
			allowed: true,
		},
		{
			name:    "subdomain match",
			domains: []string{"example.com"},
			origin:  "https://app.example.com",
			allowed: true,
		},
		{
			name:    "different domain rejected",
			domains: []string{"example.com"},
			origin:  "https://example.org",
			allowed: false,
		},
		{
			name:    "suffix without dot boundary rejected",
			domains: []string{"example.com"},
			origin:  "https://evilexample.com",
			allowed: false,
		},
		{
			name:    "port is ignored",
			domains: []string{"localhost"},
			origin:  "http://localhost:3000",
			allowed: true,
		},
		{
			name:    "referer fallback when origin absent",
			domains: []string{"example.com"},
			referer: "https://app.example.com/dashboard/page",
			allowed: true,
		},
		{
			name:    "origin wins over referer",
			domains: []string{"example.com"},
			origin:  "https://example.org",
			referer: "https://example.com/",
			allowed: false,
		},
		{
			name:    "allow-list with no headers fails closed",
			domains: []string{"example.com"},
			allowed: false,
		},
		{
			name:    "allow-list case insensitive",
			domains: []string{"Example.COM"},
			origin:  "https://EXAMPLE.com",
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			secret := f.addToken(t, func(tok *models.AccessToken, _ *models.Tenant) {
				tok.AllowedDomains = tt.domains
			})

			_, err := f.auth.Verify(context.Background(), secret, tt.origin, tt.referer)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrUnauthorized)
			}
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		secret, err := GenerateSecret()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(secret, "ck_"))
		assert.False(t, seen[secret], "secrets must be unique")
		seen[secret] = true
	}
}

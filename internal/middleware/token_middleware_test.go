package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditgate/internal/auth"
	"creditgate/internal/models"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

type stubTokenStore struct {
	token *models.AccessToken
}

func (s *stubTokenStore) GetBySecretHash(ctx context.Context, hash string) (*models.AccessToken, error) {
	if s.token != nil && s.token.SecretHash == hash {
		return s.token, nil
	}
	return nil, storage.ErrTokenNotFound
}

type stubTenantStore struct {
	tenant *models.Tenant
}

func (s *stubTenantStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if s.tenant != nil && s.tenant.ID == id {
		return s.tenant, nil
	}
	return nil, storage.ErrTenantNotFound
}

func newMiddlewareFixture(t *testing.T) (func(http.Handler) http.Handler, string) {
	t.Helper()

	secret, err := auth.GenerateSecret()
	require.NoError(t, err)

	tenant := &models.Tenant{ID: uuid.New(), Email: "owner@example.com"}
	expires := time.Now().Add(time.Hour)
	token := &models.AccessToken{
		ID:         uuid.New(),
		TenantID:   tenant.ID,
		SecretHash: utils.HashString(secret),
		IsActive:   true,
		ExpiresAt:  &expires,
	}

	authenticator := auth.NewAuthenticator(
		&stubTokenStore{token: token},
		&stubTenantStore{tenant: tenant},
		nil,
	)
	return TokenMiddleware(authenticator), secret
}

func TestTokenMiddlewareHeaders(t *testing.T) {
	mw, secret := newMiddlewareFixture(t)

	var gotTenant *models.Tenant
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant, _ = GetTenant(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		setHeaders func(*http.Request)
		wantStatus int
	}{
		{
			name:       "x-api-key header",
			setHeaders: func(r *http.Request) { r.Header.Set("X-API-Key", secret) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "bearer token",
			setHeaders: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+secret) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing credentials",
			setHeaders: func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			setHeaders: func(r *http.Request) { r.Header.Set("X-API-Key", "ck_wrong") },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTenant = nil
			req := httptest.NewRequest("POST", "/v1/chat", nil)
			tt.setHeaders(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, gotTenant)
				assert.Equal(t, "owner@example.com", gotTenant.Email)
			} else {
				assert.Contains(t, rec.Body.String(), "Invalid API key")
			}
		})
	}
}

func TestAdminJWTMiddleware(t *testing.T) {
	jwtSecret := []byte("test-secret")
	adminID := uuid.New()

	var gotAdminID uuid.UUID
	handler := AdminJWTMiddleware(jwtSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAdminID, _ = GetAdminID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		token, _, err := auth.GenerateSessionJWT(adminID, jwtSecret)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/admin/tenants", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, adminID, gotAdminID)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin/tenants", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := auth.GenerateSessionJWT(adminID, []byte("other-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/admin/tenants", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"creditgate/internal/auth"
	"creditgate/internal/models"
	"creditgate/internal/utils"
)

// ContextKey defines the type for context keys to avoid conflicts
type ContextKey string

const (
	// TenantKey is the context key for the authenticated tenant
	TenantKey ContextKey = "tenant"
)

// TokenMiddleware verifies access tokens on external routes and puts
// the owning tenant into the request context. Every rejection returns
// the same 401 body so callers cannot probe which check failed.
func TokenMiddleware(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := r.Header.Get("X-API-Key")
			if secret == "" {
				authHeader := r.Header.Get("Authorization")
				if strings.HasPrefix(authHeader, "Bearer ") {
					secret = strings.TrimPrefix(authHeader, "Bearer ")
				}
			}

			tenant, err := authenticator.Verify(r.Context(), secret,
				r.Header.Get("Origin"), r.Header.Get("Referer"))
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), TenantKey, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTenant retrieves the authenticated tenant from the request context
func GetTenant(ctx context.Context) (*models.Tenant, bool) {
	tenant, ok := ctx.Value(TenantKey).(*models.Tenant)
	return tenant, ok
}

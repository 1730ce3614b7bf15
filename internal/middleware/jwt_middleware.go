package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"creditgate/internal/auth"
	"creditgate/internal/utils"
)

const (
	// AdminIDKey is the context key for the authenticated admin user ID
	AdminIDKey ContextKey = "adminID"
)

// AdminJWTMiddleware validates admin session tokens on admin routes.
func AdminJWTMiddleware(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing authentication token")
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			adminID, err := auth.DecodeSessionJWT(tokenString, jwtSecret)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminID retrieves the authenticated admin user ID from the request context
func GetAdminID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(AdminIDKey).(uuid.UUID)
	return id, ok
}

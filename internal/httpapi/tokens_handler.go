package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"creditgate/internal/auth"
	"creditgate/internal/middleware"
	"creditgate/internal/models"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

// TokensHandler serves tenant self-service access token management.
type TokensHandler struct {
	tokens *storage.TokenRepository
	logger *utils.Logger
}

// NewTokensHandler creates a new tokens handler
func NewTokensHandler(tokens *storage.TokenRepository) *TokensHandler {
	return &TokensHandler{
		tokens: tokens,
		logger: utils.NewLogger("tokens"),
	}
}

// CreateTokenRequest is the inbound token creation payload.
type CreateTokenRequest struct {
	Name           string     `json:"name"`
	AllowedDomains []string   `json:"allowed_domains,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// Create mints a new access token. The plaintext secret appears in
// this response and nowhere else; only its hash is stored.
func (h *TokensHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.GetTenant(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Token name is required")
		return
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		utils.RespondWithError(w, http.StatusBadRequest, "Expiry must be in the future")
		return
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		h.logger.Error("Failed to generate token secret", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	token := &models.AccessToken{
		TenantID:       tenant.ID,
		Name:           req.Name,
		SecretHash:     utils.HashString(secret),
		AllowedDomains: req.AllowedDomains,
		IsActive:       true,
		ExpiresAt:      req.ExpiresAt,
	}
	if err := h.tokens.Create(r.Context(), token); err != nil {
		h.logger.Error("Failed to create token", "tenant_id", tenant.ID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"token":  token,
		"secret": secret,
	})
}

// List returns the tenant's tokens, without secrets.
func (h *TokensHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.GetTenant(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	tokens, err := h.tokens.ListByTenant(r.Context(), tenant.ID)
	if err != nil {
		h.logger.Error("Failed to list tokens", "tenant_id", tenant.ID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

// Revoke deactivates one of the tenant's tokens. Takes effect on the
// next verification; the repository invalidates the lookup cache.
func (h *TokensHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(tenantID, tokenID uuid.UUID) error {
		return h.tokens.SetActive(r.Context(), tenantID, tokenID, false)
	})
}

// Delete removes one of the tenant's tokens.
func (h *TokensHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(tenantID, tokenID uuid.UUID) error {
		return h.tokens.Delete(r.Context(), tenantID, tokenID)
	})
}

// mutate applies a scoped change to a token owned by the caller. The
// tenant ID is part of the repository predicate, so one tenant can
// never touch another's tokens.
func (h *TokensHandler) mutate(w http.ResponseWriter, r *http.Request, op func(tenantID, tokenID uuid.UUID) error) {
	tenant, ok := middleware.GetTenant(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	tokenID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid token id")
		return
	}

	if err := op(tenant.ID, tokenID); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Token not found")
			return
		}
		h.logger.Error("Failed to update token", "token_id", tokenID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

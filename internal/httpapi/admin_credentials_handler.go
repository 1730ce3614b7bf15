package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"creditgate/internal/gateway"
	"creditgate/internal/models"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

// AdminCredentialsHandler serves provider credential management.
// Plaintext secrets flow in on upsert and never flow out; responses
// carry metadata only.
type AdminCredentialsHandler struct {
	credentials *storage.CredentialRepository
	vault       *storage.Vault
	gateway     *gateway.Service
	logger      *utils.Logger
}

// NewAdminCredentialsHandler creates a new admin credentials handler
func NewAdminCredentialsHandler(credentials *storage.CredentialRepository, vault *storage.Vault, gw *gateway.Service) *AdminCredentialsHandler {
	return &AdminCredentialsHandler{
		credentials: credentials,
		vault:       vault,
		gateway:     gw,
		logger:      utils.NewLogger("admin-credentials"),
	}
}

// CredentialView is the admin-facing shape of a stored credential.
type CredentialView struct {
	Provider   string     `json:"provider"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// List returns stored credential metadata for every provider.
func (h *AdminCredentialsHandler) List(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list credentials", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	views := make([]CredentialView, 0, len(creds))
	for _, cred := range creds {
		views = append(views, CredentialView{
			Provider:   cred.Provider,
			LastUsedAt: cred.LastUsedAt,
			CreatedAt:  cred.CreatedAt,
			UpdatedAt:  cred.UpdatedAt,
		})
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"credentials": views})
}

// Upsert seals and stores the provider's API secret, replacing any
// previous one.
func (h *AdminCredentialsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	var req struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Secret == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Secret is required")
		return
	}

	ciphertext, iv, err := h.vault.Seal(req.Secret)
	if err != nil {
		h.logger.Error("Failed to seal credential", "provider", provider, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	cred := &models.ProviderCredential{
		Provider:   provider,
		Ciphertext: ciphertext,
		IV:         iv,
	}
	if err := h.credentials.Upsert(r.Context(), cred); err != nil {
		h.logger.Error("Failed to store credential", "provider", provider, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, CredentialView{
		Provider:   cred.Provider,
		LastUsedAt: cred.LastUsedAt,
		CreatedAt:  cred.CreatedAt,
		UpdatedAt:  cred.UpdatedAt,
	})
}

// Delete removes a provider's stored credential.
func (h *AdminCredentialsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	if err := h.credentials.Delete(r.Context(), provider); err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Credential not found")
			return
		}
		h.logger.Error("Failed to delete credential", "provider", provider, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Test runs a connectivity check against the provider with the stored
// credential. The outcome is always a 200 with success/message.
func (h *AdminCredentialsHandler) Test(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	result := h.gateway.TestConnection(r.Context(), provider)
	utils.RespondWithJSON(w, http.StatusOK, result)
}

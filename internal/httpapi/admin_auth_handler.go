package httpapi

import (
	"encoding/json"
	"net/http"

	"creditgate/internal/auth"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

// AdminAuthHandler serves admin login.
type AdminAuthHandler struct {
	admins    *storage.AdminUserRepository
	jwtSecret []byte
	logger    *utils.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(admins *storage.AdminUserRepository, jwtSecret []byte) *AdminAuthHandler {
	return &AdminAuthHandler{
		admins:    admins,
		jwtSecret: jwtSecret,
		logger:    utils.NewLogger("admin-auth"),
	}
}

// Login exchanges email and password for a session JWT. All rejections
// share one message.
func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	admin, err := h.admins.GetByEmail(r.Context(), req.Email)
	if err != nil || !admin.IsValid() || !auth.CheckPassword(admin.PasswordHash, req.Password) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, exp, err := auth.GenerateSessionJWT(admin.ID, h.jwtSecret)
	if err != nil {
		h.logger.Error("Failed to generate session token", "admin_id", admin.ID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	if err := h.admins.UpdateLastLogin(r.Context(), admin.ID); err != nil {
		h.logger.Warn("Failed to update last login", "admin_id", admin.ID, "error", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"exp":   exp,
	})
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"creditgate/internal/ledger"
	"creditgate/internal/models"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

// AdminTenantsHandler serves tenant administration: creation, balance
// adjustments, and suspension.
type AdminTenantsHandler struct {
	tenants           *storage.TenantRepository
	transactions      *storage.TransactionRepository
	ledger            *ledger.Service
	startingAllotment int64
	logger            *utils.Logger
}

// NewAdminTenantsHandler creates a new admin tenants handler
func NewAdminTenantsHandler(tenants *storage.TenantRepository, transactions *storage.TransactionRepository, lg *ledger.Service, startingAllotment int64) *AdminTenantsHandler {
	return &AdminTenantsHandler{
		tenants:           tenants,
		transactions:      transactions,
		ledger:            lg,
		startingAllotment: startingAllotment,
		logger:            utils.NewLogger("admin-tenants"),
	}
}

// Create registers a tenant with the starting credit allotment. The
// allotment is the balance's starting point, not a ledger entry;
// reconciliation is allotment plus transaction sum.
func (h *AdminTenantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email is required")
		return
	}

	tenant := &models.Tenant{
		Email:           req.Email,
		DisplayName:     req.DisplayName,
		AdvancedCredits: h.startingAllotment,
	}
	if err := h.tenants.Create(r.Context(), tenant); err != nil {
		h.logger.Error("Failed to create tenant", "email", req.Email, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, tenant)
}

// Get returns a tenant with its reconciliation status: the transaction
// sum plus starting allotment must equal the current balance.
func (h *AdminTenantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid tenant id")
		return
	}

	tenant, err := h.tenants.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrTenantNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Tenant not found")
			return
		}
		h.logger.Error("Failed to get tenant", "tenant_id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	sum, err := h.transactions.SumByTenant(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to sum transactions", "tenant_id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"tenant":          tenant,
		"transaction_sum": sum,
		"reconciled":      h.startingAllotment+sum == tenant.AdvancedCredits,
	})
}

// Adjust credits or debits a tenant's balance as an admin adjustment.
// Positive amounts add credits; negative amounts withdraw them, still
// subject to the balance floor.
func (h *AdminTenantsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid tenant id")
		return
	}

	var req struct {
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Amount == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Amount must be non-zero")
		return
	}

	balance, err := h.ledger.Adjust(r.Context(), id, req.Amount, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTenantNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "Tenant not found")
		case errors.Is(err, storage.ErrInsufficientBalance):
			utils.RespondWithError(w, http.StatusPaymentRequired, "Insufficient credits")
		default:
			h.logger.Error("Failed to adjust balance", "tenant_id", id, "error", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"balance": balance})
}

// Suspend flips a tenant's suspended flag. Suspension blocks token
// verification on the next request; tenants are never hard-deleted.
func (h *AdminTenantsHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid tenant id")
		return
	}

	var req struct {
		Suspended bool `json:"suspended"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.tenants.SetSuspended(r.Context(), id, req.Suspended); err != nil {
		if errors.Is(err, storage.ErrTenantNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Tenant not found")
			return
		}
		h.logger.Error("Failed to set suspended", "tenant_id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

package httpapi

import (
	"net/http"
	"strconv"

	"creditgate/internal/middleware"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
)

// AccountHandler serves tenant balance and transaction history.
type AccountHandler struct {
	transactions *storage.TransactionRepository
	logger       *utils.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(transactions *storage.TransactionRepository) *AccountHandler {
	return &AccountHandler{
		transactions: transactions,
		logger:       utils.NewLogger("account"),
	}
}

// Balance returns the authoritative balance snapshot. Clients use this
// to reconcile after reconnecting to the notification stream.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.GetTenant(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, tenant.Snapshot())
}

// Transactions returns the tenant's ledger history, newest first.
func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.GetTenant(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	limit := parseIntParam(r, "limit", defaultTransactionLimit)
	if limit < 1 || limit > maxTransactionLimit {
		limit = defaultTransactionLimit
	}
	offset := parseIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := h.transactions.ListByTenant(r.Context(), tenant.ID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list transactions", "tenant_id", tenant.ID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"transactions": entries,
		"limit":        limit,
		"offset":       offset,
	})
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

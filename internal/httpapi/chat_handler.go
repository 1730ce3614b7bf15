package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"creditgate/internal/gateway"
	"creditgate/internal/ledger"
	"creditgate/internal/middleware"
	"creditgate/internal/models"
	"creditgate/internal/providers"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

// ChatHandler serves the metered chat endpoint.
type ChatHandler struct {
	gateway *gateway.Service
	ledger  *ledger.Service
	logger  *utils.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(gw *gateway.Service, lg *ledger.Service) *ChatHandler {
	return &ChatHandler{
		gateway: gw,
		ledger:  lg,
		logger:  utils.NewLogger("chat"),
	}
}

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	ModelID     string              `json:"model_id"`
	Messages    []providers.Message `json:"messages"`
	Temperature *float64            `json:"temperature,omitempty"`
	MaxTokens   *int                `json:"max_tokens,omitempty"`
}

// ChatResponse is the outbound chat payload.
type ChatResponse struct {
	Content      string          `json:"content"`
	FinishReason string          `json:"finish_reason"`
	Usage        providers.Usage `json:"usage"`
	CreditsSpent int64           `json:"credits_spent"`
	Balance      int64           `json:"balance"`
}

// Chat runs the metered flow: resolve the catalog entry, withdraw the
// model's credit cost, dispatch upstream, and refund on upstream
// failure. The tenant was authenticated by the middleware.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.GetTenant(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	modelID, err := uuid.Parse(req.ModelID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid model_id")
		return
	}
	if len(req.Messages) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "At least one message is required")
		return
	}

	ctx := r.Context()

	model, err := h.gateway.ResolveModel(ctx, modelID)
	if err != nil {
		if errors.Is(err, storage.ErrModelNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Model not found")
			return
		}
		h.logger.Error("Failed to resolve model", "model_id", modelID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	// Withdraw the model's credit cost before dispatching. A rejected
	// debit means the upstream is never called.
	metadata := models.JSONB{
		"model_id":   model.ID.String(),
		"model_name": model.Name,
		"provider":   model.Provider,
	}
	balance := tenant.AdvancedCredits
	if model.CreditCost > 0 {
		balance, err = h.ledger.Debit(ctx, tenant.ID, model.CreditCost, "generation: "+model.Name, metadata)
		if err != nil {
			if errors.Is(err, storage.ErrInsufficientBalance) {
				utils.RespondWithError(w, http.StatusPaymentRequired, "Insufficient credits")
				return
			}
			h.logger.Error("Failed to debit", "tenant_id", tenant.ID, "error", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
			return
		}
	}

	result, err := h.gateway.DispatchChat(ctx, model, req.Messages, providers.ChatOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		balance = h.refund(r, tenant.ID, model, balance, err)
		h.respondDispatchError(w, model, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ChatResponse{
		Content:      result.Content,
		FinishReason: result.FinishReason,
		Usage:        result.Usage,
		CreditsSpent: model.CreditCost,
		Balance:      balance,
	})
}

// refund returns the withdrawn credits after a failed dispatch. The
// refund entry references the failure so the two ledger rows pair up.
func (h *ChatHandler) refund(r *http.Request, tenantID uuid.UUID, model *models.CatalogModel, balance int64, cause error) int64 {
	if model.CreditCost <= 0 {
		return balance
	}

	// The dispatch may have failed because the client disconnected;
	// the refund must still land, so it runs on a detached context.
	ctx := context.WithoutCancel(r.Context())
	newBalance, err := h.ledger.Credit(ctx, tenantID, model.CreditCost,
		models.KindRefund, "refund: generation failed", models.JSONB{
			"model_id": model.ID.String(),
			"error":    cause.Error(),
		},
	)
	if err != nil {
		// The debit stands but the generation never happened. This is
		// the one path that needs manual reconciliation.
		h.logger.Error("Failed to refund after dispatch failure",
			"tenant_id", tenantID, "amount", model.CreditCost, "error", err)
		return balance
	}
	return newBalance
}

func (h *ChatHandler) respondDispatchError(w http.ResponseWriter, model *models.CatalogModel, err error) {
	var upstream *providers.UpstreamError
	switch {
	case errors.Is(err, gateway.ErrCredentialNotConfigured):
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Provider not configured")
	case errors.Is(err, providers.ErrUnsupportedProvider):
		h.logger.Error("Catalog references unsupported provider", "provider", model.Provider)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
	case errors.Is(err, storage.ErrDecryptionFailed):
		h.logger.Error("Credential decryption failed", "provider", model.Provider, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
	case errors.As(err, &upstream):
		utils.RespondWithError(w, http.StatusBadGateway, "Upstream provider error")
	default:
		utils.RespondWithError(w, http.StatusBadGateway, "Upstream provider unreachable")
	}
}

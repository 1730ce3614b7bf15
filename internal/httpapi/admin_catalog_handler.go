package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"creditgate/internal/models"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

// AdminCatalogHandler serves catalog model management.
type AdminCatalogHandler struct {
	catalog *storage.CatalogRepository
	logger  *utils.Logger
}

// NewAdminCatalogHandler creates a new admin catalog handler
func NewAdminCatalogHandler(catalog *storage.CatalogRepository) *AdminCatalogHandler {
	return &AdminCatalogHandler{
		catalog: catalog,
		logger:  utils.NewLogger("admin-catalog"),
	}
}

// CatalogEntryRequest is the inbound create/update payload.
type CatalogEntryRequest struct {
	Name              string `json:"name"`
	Provider          string `json:"provider"`
	UpstreamModel     string `json:"upstream_model"`
	SupportsStreaming bool   `json:"supports_streaming"`
	SupportsVision    bool   `json:"supports_vision"`
	ImageGeneration   bool   `json:"image_generation"`
	VideoGeneration   bool   `json:"video_generation"`
	AudioGeneration   bool   `json:"audio_generation"`
	CreditCost        int64  `json:"credit_cost"`
	Enabled           bool   `json:"enabled"`
	Visible           bool   `json:"visible"`
	SortOrder         int    `json:"sort_order"`
}

func (req *CatalogEntryRequest) validate() string {
	if req.Name == "" {
		return "Name is required"
	}
	if req.Provider == "" {
		return "Provider is required"
	}
	if req.UpstreamModel == "" {
		return "Upstream model is required"
	}
	if req.CreditCost < 0 {
		return "Credit cost must not be negative"
	}
	return ""
}

func (req *CatalogEntryRequest) apply(entry *models.CatalogModel) {
	entry.Name = req.Name
	entry.Provider = req.Provider
	entry.UpstreamModel = req.UpstreamModel
	entry.SupportsStreaming = req.SupportsStreaming
	entry.SupportsVision = req.SupportsVision
	entry.ImageGeneration = req.ImageGeneration
	entry.VideoGeneration = req.VideoGeneration
	entry.AudioGeneration = req.AudioGeneration
	entry.CreditCost = req.CreditCost
	entry.Enabled = req.Enabled
	entry.Visible = req.Visible
	entry.SortOrder = req.SortOrder
}

// List returns every catalog entry, including disabled and hidden ones.
func (h *AdminCatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.ListAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to list catalog", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"models": entries})
}

// Create adds a catalog entry.
func (h *AdminCatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CatalogEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	var entry models.CatalogModel
	req.apply(&entry)
	if err := h.catalog.Create(r.Context(), &entry); err != nil {
		h.logger.Error("Failed to create catalog entry", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, entry)
}

// Update replaces a catalog entry's fields.
func (h *AdminCatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid model id")
		return
	}

	var req CatalogEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	entry := models.CatalogModel{ID: id}
	req.apply(&entry)
	if err := h.catalog.Update(r.Context(), &entry); err != nil {
		if errors.Is(err, storage.ErrModelNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Model not found")
			return
		}
		h.logger.Error("Failed to update catalog entry", "model_id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, entry)
}

// SetEnabled flips an entry's enabled flag. Disabling takes effect on
// the next resolution; the repository invalidates the cache slot.
func (h *AdminCatalogHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid model id")
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.catalog.SetEnabled(r.Context(), id, req.Enabled); err != nil {
		if errors.Is(err, storage.ErrModelNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Model not found")
			return
		}
		h.logger.Error("Failed to set enabled", "model_id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Delete removes a catalog entry.
func (h *AdminCatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid model id")
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrModelNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Model not found")
			return
		}
		h.logger.Error("Failed to delete catalog entry", "model_id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

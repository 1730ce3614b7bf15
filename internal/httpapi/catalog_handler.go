package httpapi

import (
	"net/http"

	"creditgate/internal/models"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

// CatalogHandler serves the user-facing model listing.
type CatalogHandler struct {
	catalog *storage.CatalogRepository
	logger  *utils.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *storage.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  utils.NewLogger("catalog"),
	}
}

// ModelView is the user-facing shape of a catalog entry.
type ModelView struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	SupportsStreaming bool   `json:"supports_streaming"`
	SupportsVision    bool   `json:"supports_vision"`
	ImageGeneration   bool   `json:"image_generation"`
	VideoGeneration   bool   `json:"video_generation"`
	AudioGeneration   bool   `json:"audio_generation"`
	CreditCost        int64  `json:"credit_cost"`
}

// ListModels returns the enabled, visible catalog in display order.
// Provider names and upstream model identifiers stay internal.
func (h *CatalogHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.ListListed(r.Context())
	if err != nil {
		h.logger.Error("Failed to list catalog", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	views := make([]ModelView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, toModelView(entry))
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"models": views})
}

func toModelView(entry *models.CatalogModel) ModelView {
	return ModelView{
		ID:                entry.ID.String(),
		Name:              entry.Name,
		SupportsStreaming: entry.SupportsStreaming,
		SupportsVision:    entry.SupportsVision,
		ImageGeneration:   entry.ImageGeneration,
		VideoGeneration:   entry.VideoGeneration,
		AudioGeneration:   entry.AudioGeneration,
		CreditCost:        entry.CreditCost,
	}
}

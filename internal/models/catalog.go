package models

import (
	"time"

	"github.com/google/uuid"
)

// CatalogModel is an admin-curated descriptor of one callable AI model.
// It joins to a ProviderCredential on the provider name only, so an
// entry can exist before its credential is configured.
type CatalogModel struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`                     // user-facing label
	Provider      string    `db:"provider" json:"provider"`             // e.g. "openai", "anthropic", "gemini"
	UpstreamModel string    `db:"upstream_model" json:"upstream_model"` // provider-specific model identifier

	// Capability flags
	SupportsStreaming bool `db:"supports_streaming" json:"supports_streaming"`
	SupportsVision    bool `db:"supports_vision" json:"supports_vision"`
	ImageGeneration   bool `db:"image_generation" json:"image_generation"`
	VideoGeneration   bool `db:"video_generation" json:"video_generation"`
	AudioGeneration   bool `db:"audio_generation" json:"audio_generation"`

	// Advanced credits withdrawn per generation with this model.
	CreditCost int64 `db:"credit_cost" json:"credit_cost"`

	Enabled   bool      `db:"enabled" json:"enabled"` // callable at all
	Visible   bool      `db:"visible" json:"visible"` // shown in user-facing listings
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsCallable reports whether the gateway may dispatch to this entry.
func (m *CatalogModel) IsCallable() bool {
	return m.Enabled
}

// IsListed reports whether the entry appears in user-facing catalogs.
func (m *CatalogModel) IsListed() bool {
	return m.Enabled && m.Visible
}

package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"creditgate/internal/models"
)

const catalogColumns = `
	id, name, provider, upstream_model,
	supports_streaming, supports_vision, image_generation, video_generation, audio_generation,
	credit_cost, enabled, visible, sort_order, created_at, updated_at
`

// CatalogRepository handles catalog model database operations
type CatalogRepository struct {
	db *DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetCallable retrieves a catalog entry by ID, restricted to enabled
// entries. Disabled entries resolve as not found, and admin mutations
// invalidate the cache so a deactivation takes effect immediately.
func (r *CatalogRepository) GetCallable(ctx context.Context, id uuid.UUID) (*models.CatalogModel, error) {
	cacheKey := "catalog:" + id.String()
	if cached, ok := r.db.catalogCache.Get(cacheKey); ok {
		model := cached.(*models.CatalogModel)
		if !model.IsCallable() {
			return nil, ErrModelNotFound
		}
		return model, nil
	}

	model, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.db.catalogCache.Set(cacheKey, model)

	if !model.IsCallable() {
		return nil, ErrModelNotFound
	}
	return model, nil
}

// GetByID retrieves a catalog entry by ID regardless of flags (admin use).
func (r *CatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CatalogModel, error) {
	var model models.CatalogModel
	query := `SELECT ` + catalogColumns + ` FROM catalog_models WHERE id = $1`

	err := r.db.conn.GetContext(ctx, &model, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to get catalog model: %w", err)
	}

	return &model, nil
}

// ListListed returns entries shown in user-facing catalogs, in display order.
func (r *CatalogRepository) ListListed(ctx context.Context) ([]*models.CatalogModel, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM catalog_models
		WHERE enabled AND visible
		ORDER BY sort_order, name
	`

	var entries []*models.CatalogModel
	if err := r.db.conn.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list catalog models: %w", err)
	}

	return entries, nil
}

// ListAll returns every catalog entry (admin use).
func (r *CatalogRepository) ListAll(ctx context.Context) ([]*models.CatalogModel, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_models ORDER BY sort_order, name`

	var entries []*models.CatalogModel
	if err := r.db.conn.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list catalog models: %w", err)
	}

	return entries, nil
}

// Create creates a new catalog entry
func (r *CatalogRepository) Create(ctx context.Context, model *models.CatalogModel) error {
	query := `
		INSERT INTO catalog_models (
			id, name, provider, upstream_model,
			supports_streaming, supports_vision, image_generation, video_generation, audio_generation,
			credit_cost, enabled, visible, sort_order
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}

	err := r.db.conn.QueryRowxContext(
		ctx, query,
		model.ID, model.Name, model.Provider, model.UpstreamModel,
		model.SupportsStreaming, model.SupportsVision,
		model.ImageGeneration, model.VideoGeneration, model.AudioGeneration,
		model.CreditCost, model.Enabled, model.Visible, model.SortOrder,
	).Scan(&model.CreatedAt, &model.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create catalog model: %w", err)
	}

	return nil
}

// Update updates an existing catalog entry and invalidates its cache slot.
func (r *CatalogRepository) Update(ctx context.Context, model *models.CatalogModel) error {
	query := `
		UPDATE catalog_models
		SET name = $2, provider = $3, upstream_model = $4,
		    supports_streaming = $5, supports_vision = $6,
		    image_generation = $7, video_generation = $8, audio_generation = $9,
		    credit_cost = $10, enabled = $11, visible = $12, sort_order = $13, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.conn.QueryRowxContext(
		ctx, query,
		model.ID, model.Name, model.Provider, model.UpstreamModel,
		model.SupportsStreaming, model.SupportsVision,
		model.ImageGeneration, model.VideoGeneration, model.AudioGeneration,
		model.CreditCost, model.Enabled, model.Visible, model.SortOrder,
	).Scan(&model.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return ErrModelNotFound
		}
		return fmt.Errorf("failed to update catalog model: %w", err)
	}

	r.db.catalogCache.Delete("catalog:" + model.ID.String())
	return nil
}

// SetEnabled flips an entry's enabled flag and invalidates its cache slot.
func (r *CatalogRepository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE catalog_models SET enabled = $2, updated_at = now() WHERE id = $1`,
		id, enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to update catalog model: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrModelNotFound
	}

	r.db.catalogCache.Delete("catalog:" + id.String())
	return nil
}

// Delete deletes a catalog entry and invalidates its cache slot.
func (r *CatalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM catalog_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete catalog model: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrModelNotFound
	}

	r.db.catalogCache.Delete("catalog:" + id.String())
	return nil
}

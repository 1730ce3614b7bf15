package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"creditgate/internal/models"
)

// TenantRepository handles tenant database operations, including the
// atomic balance mutations the ledger is built on.
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create creates a new tenant with its starting allotment.
func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, email, display_name, basic_credits, advanced_credits, suspended)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}

	err := r.db.conn.QueryRowxContext(
		ctx, query,
		tenant.ID, tenant.Email, tenant.DisplayName,
		tenant.BasicCredits, tenant.AdvancedCredits, tenant.Suspended,
	).Scan(&tenant.CreatedAt, &tenant.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	query := `
		SELECT id, email, display_name, basic_credits, advanced_credits,
		       suspended, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	err := r.db.conn.GetContext(ctx, &tenant, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &tenant, nil
}

// GetByEmail retrieves a tenant by email
func (r *TenantRepository) GetByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	var tenant models.Tenant
	query := `
		SELECT id, email, display_name, basic_credits, advanced_credits,
		       suspended, created_at, updated_at
		FROM tenants
		WHERE email = $1
	`

	err := r.db.conn.GetContext(ctx, &tenant, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &tenant, nil
}

// SetSuspended flips the tenant's suspension flag. Tenants are never
// hard-deleted.
func (r *TenantRepository) SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE tenants SET suspended = $2, updated_at = now() WHERE id = $1`,
		id, suspended,
	)
	if err != nil {
		return fmt.Errorf("failed to update tenant suspension: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrTenantNotFound
	}

	return nil
}

// ApplyCredit increments the advanced balance and appends the ledger
// entry in one database transaction. The entry's Amount must already be
// positive; BalanceAfter is filled in here.
func (r *TenantRepository) ApplyCredit(ctx context.Context, tenantID uuid.UUID, amount int64, entry *models.CreditTransaction) (models.BalanceSnapshot, error) {
	query := `
		UPDATE tenants
		SET advanced_credits = advanced_credits + $2, updated_at = now()
		WHERE id = $1
		RETURNING basic_credits, advanced_credits, updated_at
	`
	return r.applyBalanceChange(ctx, tenantID, query, amount, entry, false)
}

// ApplyDebit decrements the advanced balance with a conditional update
// ("decrement only if balance >= amount") and appends the ledger entry
// in the same database transaction. Two concurrent debits against a
// tenant at the boundary cannot both succeed: the losing update matches
// zero rows and no entry is written. Returns ErrInsufficientBalance in
// that case.
func (r *TenantRepository) ApplyDebit(ctx context.Context, tenantID uuid.UUID, amount int64, entry *models.CreditTransaction) (models.BalanceSnapshot, error) {
	query := `
		UPDATE tenants
		SET advanced_credits = advanced_credits - $2, updated_at = now()
		WHERE id = $1 AND advanced_credits >= $2
		RETURNING basic_credits, advanced_credits, updated_at
	`
	return r.applyBalanceChange(ctx, tenantID, query, amount, entry, true)
}

func (r *TenantRepository) applyBalanceChange(ctx context.Context, tenantID uuid.UUID, query string, amount int64, entry *models.CreditTransaction, conditional bool) (models.BalanceSnapshot, error) {
	var snap models.BalanceSnapshot

	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return snap, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, query, tenantID, amount).
		Scan(&snap.BasicCredits, &snap.AdvancedCredits, &snap.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			if !conditional {
				return snap, ErrTenantNotFound
			}
			// Conditional update matched nothing: either the tenant
			// does not exist or the balance was too low.
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				`SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, tenantID); err != nil {
				return snap, fmt.Errorf("failed to check tenant: %w", err)
			}
			if !exists {
				return snap, ErrTenantNotFound
			}
			return snap, ErrInsufficientBalance
		}
		return snap, fmt.Errorf("failed to update balance: %w", err)
	}

	snap.TenantID = tenantID
	entry.TenantID = tenantID
	entry.BalanceAfter = snap.AdvancedCredits

	if err := insertTransaction(ctx, tx, entry); err != nil {
		return models.BalanceSnapshot{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.BalanceSnapshot{}, fmt.Errorf("failed to commit balance change: %w", err)
	}

	return snap, nil
}

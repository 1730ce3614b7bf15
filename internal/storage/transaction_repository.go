package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"creditgate/internal/models"
)

// TransactionRepository reads the append-only ledger. Writes happen
// only through TenantRepository's balance mutations so a balance change
// and its entry commit or roll back together.
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// insertTransaction appends a ledger entry inside the caller's
// transaction. Entries are never updated or deleted.
func insertTransaction(ctx context.Context, tx *sqlx.Tx, entry *models.CreditTransaction) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO credit_transactions (id, tenant_id, amount, kind, description, metadata, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(
		ctx, query,
		entry.ID, entry.TenantID, entry.Amount, entry.Kind,
		entry.Description, entry.Metadata, entry.BalanceAfter,
	).Scan(&entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

// ListByTenant returns a tenant's ledger entries, newest first.
func (r *TransactionRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, tenant_id, amount, kind, description, metadata, balance_after, created_at
		FROM credit_transactions
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	var entries []*models.CreditTransaction
	err := r.db.conn.SelectContext(ctx, &entries, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return entries, nil
}

// SumByTenant returns the running sum of a tenant's entries. Together
// with the starting allotment this must always equal the current
// advanced balance; operators use it to verify ledger reconciliation.
func (r *TransactionRepository) SumByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var sum int64
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM credit_transactions
		WHERE tenant_id = $1
	`

	if err := r.db.conn.GetContext(ctx, &sum, query, tenantID); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}

	return sum, nil
}

// CountByTenant returns the number of ledger entries for a tenant.
func (r *TransactionRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM credit_transactions WHERE tenant_id = $1`

	if err := r.db.conn.GetContext(ctx, &count, query, tenantID); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

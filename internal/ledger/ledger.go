// Package ledger is the single write path to tenant credit balances.
// Every balance change commits a transaction entry in the same database
// transaction, so the ledger always reconciles with the balance.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"creditgate/internal/audit"
	"creditgate/internal/models"
	"creditgate/internal/notifier"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

// Store applies balance changes atomically with their ledger entries.
// *storage.TenantRepository satisfies this.
type Store interface {
	ApplyCredit(ctx context.Context, tenantID uuid.UUID, amount int64, entry *models.CreditTransaction) (models.BalanceSnapshot, error)
	ApplyDebit(ctx context.Context, tenantID uuid.UUID, amount int64, entry *models.CreditTransaction) (models.BalanceSnapshot, error)
}

// Service exposes credit and debit operations over the store, fanning
// out balance notifications and audit records after each commit.
type Service struct {
	store    Store
	notifier notifier.Notifier
	audit    audit.Sink
	logger   *utils.Logger
}

// NewService creates a ledger service. Nil notifier or audit sink
// default to the no-op implementations.
func NewService(store Store, n notifier.Notifier, sink audit.Sink) *Service {
	if n == nil {
		n = notifier.NewNoop()
	}
	if sink == nil {
		sink = audit.NewNoopSink()
	}
	return &Service{
		store:    store,
		notifier: n,
		audit:    sink,
		logger:   utils.NewLogger("ledger"),
	}
}

// Credit adds amount advanced credits to the tenant's balance and
// records a ledger entry of the given kind. Amount must be positive.
// Returns the new advanced credit balance.
func (s *Service) Credit(ctx context.Context, tenantID uuid.UUID, amount int64, kind models.TransactionKind, description string, metadata models.JSONB) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	if !kind.Valid() {
		return 0, fmt.Errorf("invalid transaction kind %q", kind)
	}

	entry := &models.CreditTransaction{
		Amount:      amount,
		Kind:        kind,
		Description: description,
		Metadata:    metadata,
	}

	snapshot, err := s.store.ApplyCredit(ctx, tenantID, amount, entry)
	if err != nil {
		return 0, err
	}

	s.afterCommit(ctx, snapshot, entry)
	return snapshot.AdvancedCredits, nil
}

// Debit withdraws amount advanced credits for a generation. The
// decrement is conditional on sufficient balance; a rejected debit
// returns storage.ErrInsufficientBalance and writes no ledger entry.
// Amount must be positive. Returns the new advanced credit balance.
func (s *Service) Debit(ctx context.Context, tenantID uuid.UUID, amount int64, description string, metadata models.JSONB) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	entry := &models.CreditTransaction{
		Amount:      -amount,
		Kind:        models.KindGeneration,
		Description: description,
		Metadata:    metadata,
	}

	snapshot, err := s.store.ApplyDebit(ctx, tenantID, amount, entry)
	if err != nil {
		return 0, err
	}

	s.afterCommit(ctx, snapshot, entry)
	return snapshot.AdvancedCredits, nil
}

// Adjust applies an admin adjustment: positive amounts credit, negative
// amounts debit (still conditional on sufficient balance).
func (s *Service) Adjust(ctx context.Context, tenantID uuid.UUID, amount int64, description string) (int64, error) {
	if amount == 0 {
		return 0, fmt.Errorf("adjustment amount must be non-zero")
	}

	entry := &models.CreditTransaction{
		Amount:      amount,
		Kind:        models.KindAdminAdjustment,
		Description: description,
	}

	var (
		snapshot models.BalanceSnapshot
		err      error
	)
	if amount > 0 {
		snapshot, err = s.store.ApplyCredit(ctx, tenantID, amount, entry)
	} else {
		snapshot, err = s.store.ApplyDebit(ctx, tenantID, -amount, entry)
	}
	if err != nil {
		return 0, err
	}

	s.afterCommit(ctx, snapshot, entry)
	return snapshot.AdvancedCredits, nil
}

// afterCommit fans out the balance notification and audit record.
// Both are best-effort; the balance change has already committed.
// Publication runs on its own goroutine so a slow broker never
// extends the request path, and on a detached context so it survives
// the caller disconnecting.
func (s *Service) afterCommit(ctx context.Context, snapshot models.BalanceSnapshot, entry *models.CreditTransaction) {
	go s.notifier.Publish(context.WithoutCancel(ctx), snapshot)

	rec := &audit.Record{
		Timestamp:     entry.CreatedAt,
		TransactionID: entry.ID.String(),
		TenantID:      entry.TenantID.String(),
		Kind:          string(entry.Kind),
		Amount:        entry.Amount,
		BalanceAfter:  entry.BalanceAfter,
		Description:   entry.Description,
		Metadata:      entry.Metadata,
	}
	if err := s.audit.Enqueue(rec); err != nil {
		s.logger.Warn("Failed to enqueue audit record", "transaction_id", rec.TransactionID, "error", err)
	}
}

// Ensure the Postgres repository satisfies the store contract.
var _ Store = (*storage.TenantRepository)(nil)

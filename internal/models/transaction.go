package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind is the closed set of ledger entry kinds. The string
// values are part of the storage contract.
type TransactionKind string

const (
	KindPurchase        TransactionKind = "purchase"
	KindGeneration      TransactionKind = "generation"
	KindRefund          TransactionKind = "refund"
	KindAdminAdjustment TransactionKind = "admin_adjustment"
	KindBonus           TransactionKind = "bonus"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindPurchase, KindGeneration, KindRefund, KindAdminAdjustment, KindBonus:
		return true
	}
	return false
}

// CreditTransaction is an immutable, append-only ledger entry. Negative
// amounts are debits, positive amounts are credits. The running sum of a
// tenant's entries must always equal its current advanced balance.
type CreditTransaction struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	TenantID     uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	Amount       int64           `db:"amount" json:"amount"`
	Kind         TransactionKind `db:"kind" json:"kind"`
	Description  string          `db:"description" json:"description"`
	Metadata     JSONB           `db:"metadata" json:"metadata,omitempty"`
	BalanceAfter int64           `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// IsDebit reports whether the entry reduced the balance.
func (t *CreditTransaction) IsDebit() bool {
	return t.Amount < 0
}

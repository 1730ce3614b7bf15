package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an account holding the two credit balances. The advanced
// balance gates metered AI operations and is only ever changed through
// the ledger; feature code never writes it directly.
type Tenant struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	DisplayName     string    `db:"display_name" json:"display_name"`
	BasicCredits    int64     `db:"basic_credits" json:"basic_credits"`
	AdvancedCredits int64     `db:"advanced_credits" json:"advanced_credits"`
	Suspended       bool      `db:"suspended" json:"suspended"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the tenant may authenticate. Tenants are
// never hard-deleted; suspension is a flag.
func (t *Tenant) IsActive() bool {
	return !t.Suspended
}

// Snapshot returns the tenant's current balances as a notifier payload.
func (t *Tenant) Snapshot() BalanceSnapshot {
	return BalanceSnapshot{
		TenantID:        t.ID,
		BasicCredits:    t.BasicCredits,
		AdvancedCredits: t.AdvancedCredits,
		UpdatedAt:       t.UpdatedAt,
	}
}

// BalanceSnapshot is the full-state payload pushed to a tenant's balance
// channel. Consumers treat it as the latest known value, never a delta.
type BalanceSnapshot struct {
	TenantID        uuid.UUID `json:"tenant_id"`
	BasicCredits    int64     `json:"basic_credits"`
	AdvancedCredits int64     `json:"advanced_credits"`
	UpdatedAt       time.Time `json:"updated_at"`
}

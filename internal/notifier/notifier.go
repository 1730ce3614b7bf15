// Package notifier publishes balance change events so interested
// consumers (dashboards, websocket bridges) can react without polling.
package notifier

import (
	"context"

	"creditgate/internal/models"
)

// Notifier broadcasts a tenant's balance snapshot after a ledger
// change. Implementations absorb delivery failures: publishing is
// best-effort and must never fail the ledger operation that triggered
// it.
type Notifier interface {
	Publish(ctx context.Context, snapshot models.BalanceSnapshot)
}

// Noop is a Notifier that discards all events. Used when no message
// broker is configured.
type Noop struct{}

// NewNoop creates a no-op notifier
func NewNoop() *Noop {
	return &Noop{}
}

// Publish discards the snapshot
func (n *Noop) Publish(_ context.Context, _ models.BalanceSnapshot) {}

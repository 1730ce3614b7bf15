package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"creditgate/internal/models"
	"creditgate/internal/utils"
)

const publishTimeout = 2 * time.Second

// RedisNotifier publishes balance snapshots over Redis pub/sub. Each
// tenant gets its own channel so subscribers can watch exactly the
// tenants they care about.
type RedisNotifier struct {
	client *redis.Client
	logger *utils.Logger
}

// NewRedisNotifier creates a Redis-backed notifier using the given client
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		logger: utils.NewLogger("notifier"),
	}
}

// ChannelFor returns the pub/sub channel name for a tenant.
func ChannelFor(tenantID string) string {
	return "balance:" + tenantID
}

// Publish sends the snapshot to the tenant's balance channel. Failures
// are logged and dropped; the caller's ledger operation has already
// committed.
func (n *RedisNotifier) Publish(ctx context.Context, snapshot models.BalanceSnapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		n.logger.Error("Failed to marshal balance snapshot", "tenant_id", snapshot.TenantID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	channel := ChannelFor(snapshot.TenantID.String())
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		n.logger.Warn("Failed to publish balance snapshot", "channel", channel, "error", err)
	}
}

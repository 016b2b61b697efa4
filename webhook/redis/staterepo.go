package redis

import (
	"context"
	"fmt"

	"github.com/hookrelay/dispatch/webhook"
	"github.com/redis/go-redis/v9"
)

/* StateRepo is the durable (webhookId -> status) key/value store the
 * Webhook State Cache write-throughs to. Deliberately separate from
 * Repository: the cache only ever needs GetStatus/SetStatus, and keeping it
 * its own small Hash avoids contending with the richer webhook registration
 * Hash under load.
 */

const webhookStateKeyPrefix = "webhook-state"

type StateRepo struct {
	client *redis.Client
}

// NewStateRepo wraps an existing client; the engine and the main Repository
// share a single *redis.Client in production.
func NewStateRepo(client *redis.Client) *StateRepo {
	return &StateRepo{client: client}
}

func webhookStateKey(id int64) string {
	return fmt.Sprintf("%s:%d", webhookStateKeyPrefix, id)
}

// GetStatus returns the last known status for a webhook, or ok=false if
// none has ever been recorded.
func (r *StateRepo) GetStatus(ctx context.Context, id int64) (webhook.Status, bool, error) {
	data, err := r.client.HGetAll(ctx, webhookStateKey(id)).Result()
	if err != nil {
		return webhook.Status{}, false, fmt.Errorf("getting webhook state: %w", err)
	}
	if len(data) == 0 {
		return webhook.Status{}, false, nil
	}
	return parseStatus(data["kind"], data["since"]), true, nil
}

// SetStatus overwrites the stored status for a webhook. Last write wins.
func (r *StateRepo) SetStatus(ctx context.Context, id int64, status webhook.Status) error {
	err := r.client.HSet(ctx, webhookStateKey(id), map[string]interface{}{
		"kind":  status.Kind.String(),
		"since": formatSince(status.Since),
	}).Err()
	if err != nil {
		return fmt.Errorf("setting webhook state: %w", err)
	}
	return nil
}

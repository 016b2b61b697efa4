package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/hookrelay/dispatch/webhook"
)

/* StateCache is a write-through, in-memory projection of per-webhook
 * delivery status over a webhook.WebhookStateRepo. Reads prefer the cache;
 * a miss falls through to the repo and populates the cache for next time.
 * Writes land in the repo first and only update the cache once that
 * succeeds, so a crash between the two never leaves the cache ahead of
 * the durable record.
 */
type StateCache struct {
	mu    sync.RWMutex
	cache map[int64]webhook.Status
	repo  webhook.WebhookStateRepo
}

// NewStateCache creates a StateCache backed by repo.
func NewStateCache(repo webhook.WebhookStateRepo) *StateCache {
	return &StateCache{
		cache: make(map[int64]webhook.Status),
		repo:  repo,
	}
}

// Get returns the webhook's current status, defaulting to Enabled when
// nothing has ever been recorded for it.
func (c *StateCache) Get(ctx context.Context, id int64) (webhook.Status, error) {
	c.mu.RLock()
	status, ok := c.cache[id]
	c.mu.RUnlock()
	if ok {
		return status, nil
	}

	status, found, err := c.repo.GetStatus(ctx, id)
	if err != nil {
		return webhook.Status{}, webhook.RepoError{Cause: fmt.Errorf("reading webhook state: %w", err)}
	}
	if !found {
		status = webhook.NewEnabled()
	}

	c.mu.Lock()
	c.cache[id] = status
	c.mu.Unlock()

	return status, nil
}

// SetStatus durably records status for id and updates the cache. The repo
// write is retried up to a small internal bound before being surfaced as a
// RepoError.
func (c *StateCache) SetStatus(ctx context.Context, id int64, status webhook.Status) error {
	if err := withRepoRetry(ctx, func() error { return c.repo.SetStatus(ctx, id, status) }); err != nil {
		return webhook.RepoError{Cause: fmt.Errorf("writing webhook state: %w", err)}
	}

	c.mu.Lock()
	c.cache[id] = status
	c.mu.Unlock()

	return nil
}

// Invalidate drops id from the cache, forcing the next Get to consult the
// repo directly.
func (c *StateCache) Invalidate(id int64) {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
}

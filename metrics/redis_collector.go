package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hookrelay/dispatch/routes"
	"github.com/redis/go-redis/v9"
)

// RedisCollector implements the Collector interface for Redis-backed metrics.
type RedisCollector struct {
	client       *redis.Client
	routesLoader *routes.Loader
}

// NewRedisCollector creates a new Redis metrics collector.
func NewRedisCollector(client *redis.Client, loader *routes.Loader) *RedisCollector {
	return &RedisCollector{
		client:       client,
		routesLoader: loader,
	}
}

// Collect gathers all metrics from Redis.
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	queueLengths, err := c.GetQueueLengths(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting queue lengths: %w", err)
	}

	statusCounts, err := c.GetStatusCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting status counts: %w", err)
	}

	webhookStateCounts, err := c.GetWebhookStateCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting webhook state counts: %w", err)
	}

	retryQueueDepths, err := c.GetRetryQueueDepths(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting retry queue depths: %w", err)
	}

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting throughput: %w", err)
	}

	return Metrics{
		QueueLengths:       queueLengths,
		StatusCounts:       statusCounts,
		WebhookStateCounts: webhookStateCounts,
		RetryQueueDepths:   retryQueueDepths,
		Throughput:         throughput,
		Timestamp:          time.Now(),
	}, nil
}

// GetQueueLengths returns the number of events awaiting first dispatch
// (status New) per registered webhook.
func (c *RedisCollector) GetQueueLengths(ctx context.Context) (map[int64]int64, error) {
	lengths := make(map[int64]int64)
	for _, reg := range c.routesLoader.List() {
		lengths[reg.WebhookID] = 0
	}

	members, err := c.client.SMembers(ctx, "events-by-status:new").Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("listing new events: %w", err)
	}

	for _, key := range members {
		webhookID, err := webhookIDFromEventKey(key)
		if err != nil {
			continue
		}
		lengths[webhookID]++
	}

	return lengths, nil
}

// GetStatusCounts returns counts of events grouped by status, using the
// status secondary indices maintained by webhook/redis.Repository.
func (c *RedisCollector) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	statusCounts := map[string]int64{
		"new":        0,
		"delivering": 0,
		"delivered":  0,
		"failed":     0,
	}

	for status := range statusCounts {
		count, err := c.client.SCard(ctx, fmt.Sprintf("events-by-status:%s", status)).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("counting status %s: %w", status, err)
		}
		statusCounts[status] = count
	}

	return statusCounts, nil
}

// GetWebhookStateCounts returns the count of registered webhooks per status
// kind, replacing the teacher's worker-heartbeat concept.
func (c *RedisCollector) GetWebhookStateCounts(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{
		"enabled":     0,
		"disabled":    0,
		"retrying":    0,
		"unavailable": 0,
	}

	keys, err := c.scanKeys(ctx, "webhook:*")
	if err != nil {
		return nil, fmt.Errorf("scanning webhook keys: %w", err)
	}

	for _, key := range keys {
		kind, err := c.client.HGet(ctx, key, "status_kind").Result()
		if err != nil {
			continue
		}
		if _, ok := counts[kind]; ok {
			counts[kind]++
		}
	}

	return counts, nil
}

// GetRetryQueueDepths returns the number of Failed events per webhook, read
// from the Failed status index. It does not check whether the webhook is
// currently Retrying, so Failed events of AtMostOnce webhooks count too.
func (c *RedisCollector) GetRetryQueueDepths(ctx context.Context) (map[int64]int64, error) {
	depths := make(map[int64]int64)

	members, err := c.client.SMembers(ctx, "events-by-status:failed").Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("listing failed events: %w", err)
	}

	for _, key := range members {
		webhookID, err := webhookIDFromEventKey(key)
		if err != nil {
			continue
		}
		depths[webhookID]++
	}

	return depths, nil
}

// GetThroughput counts Delivered events whose creation time falls within
// each window. Delivery time is not recorded, so an event created before a
// window and delivered inside it is not counted for that window.
func (c *RedisCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	now := time.Now()
	oneMinuteAgo := now.Add(-1 * time.Minute).UnixNano()
	fiveMinutesAgo := now.Add(-5 * time.Minute).UnixNano()
	fifteenMinutesAgo := now.Add(-15 * time.Minute).UnixNano()

	var lastMinute, lastFiveMinutes, lastFifteenMinutes int64

	members, err := c.client.SMembers(ctx, "events-by-status:delivered").Result()
	if err != nil && err != redis.Nil {
		return ThroughputMetrics{}, fmt.Errorf("listing delivered events: %w", err)
	}

	if len(members) == 0 {
		return ThroughputMetrics{}, nil
	}

	pipe := c.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(members))
	for i, key := range members {
		cmds[i] = pipe.HGet(ctx, key, "created_at")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return ThroughputMetrics{}, fmt.Errorf("reading created_at in bulk: %w", err)
	}

	for _, cmd := range cmds {
		createdAtStr, err := cmd.Result()
		if err != nil {
			continue
		}
		var createdAt int64
		fmt.Sscanf(createdAtStr, "%d", &createdAt)

		if createdAt >= fifteenMinutesAgo {
			lastFifteenMinutes++
			if createdAt >= fiveMinutesAgo {
				lastFiveMinutes++
				if createdAt >= oneMinuteAgo {
					lastMinute++
				}
			}
		}
	}

	return ThroughputMetrics{
		LastMinute:         lastMinute,
		LastFiveMinutes:    lastFiveMinutes,
		LastFifteenMinutes: lastFifteenMinutes,
	}, nil
}

func (c *RedisCollector) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var cursor uint64
	var keys []string
	for {
		scanKeys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, scanKeys...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// webhookIDFromEventKey extracts the webhook id from an "event:{webhookId}:{eventId}" key.
func webhookIDFromEventKey(key string) (int64, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed event key: %s", key)
	}
	var id int64
	if _, err := fmt.Sscanf(parts[1], "%d", &id); err != nil {
		return 0, err
	}
	return id, nil
}

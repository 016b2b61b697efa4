package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the dispatch engine.
type Metrics struct {
	// QueueLengths maps webhook id to the number of its events still in status New
	QueueLengths map[int64]int64 `json:"queue_lengths"`

	// StatusCounts maps event status name to count of events in that status
	StatusCounts map[string]int64 `json:"status_counts"`

	// WebhookStateCounts maps webhook status kind name to count of webhooks
	WebhookStateCounts map[string]int64 `json:"webhook_state_counts"`

	// RetryQueueDepths maps webhook id to its number of Failed events; it
	// does not check whether the webhook is currently Retrying
	RetryQueueDepths map[int64]int64 `json:"retry_queue_depths"`

	// Throughput represents events delivered per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// ThroughputMetrics represents events delivered over different time windows.
type ThroughputMetrics struct {
	LastMinute         int64 `json:"last_minute"`
	LastFiveMinutes    int64 `json:"last_five_minutes"`
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
}

// Collector defines the interface for collecting metrics from the dispatch engine.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetQueueLengths returns the number of pending events per webhook
	GetQueueLengths(ctx context.Context) (map[int64]int64, error)

	// GetStatusCounts returns the count of events by status
	GetStatusCounts(ctx context.Context) (map[string]int64, error)

	// GetWebhookStateCounts returns the count of webhooks by status kind
	GetWebhookStateCounts(ctx context.Context) (map[string]int64, error)

	// GetRetryQueueDepths returns the pending retry queue depth per webhook
	GetRetryQueueDepths(ctx context.Context) (map[int64]int64, error)

	// GetThroughput returns events delivered over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)
}

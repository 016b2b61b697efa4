package dispatch

import (
	"fmt"
	"time"
)

// BatchingConfig controls the Batcher's default size and time windows,
// applied to any webhook whose registration doesn't override them.
type BatchingConfig struct {
	MaxSize int
	MaxWait time.Duration
}

// RetryConfig controls the Retry Controller's exponential backoff and
// failure horizon.
type RetryConfig struct {
	Base           time.Duration
	Max            time.Duration
	FailureHorizon time.Duration
}

// RetentionConfig controls the TTL set on an event's stored record once it
// reaches a terminal status. A zero value disables expiry for that outcome.
type RetentionConfig struct {
	DeliveredTTL time.Duration
	FailedTTL    time.Duration
}

// Config carries every tunable the engine needs at construction time.
type Config struct {
	Batching      BatchingConfig
	Retry         RetryConfig
	Retention     RetentionConfig
	DrainDeadline time.Duration
	ErrorsBuffer  int
}

// DefaultConfig mirrors the operator-facing defaults: 10 events or 5s per
// batch, a 10s backoff base doubling up to 1h, a 7-day failure horizon, no
// retention TTL, a 30s shutdown drain, and a 128-slot error buffer.
func DefaultConfig() Config {
	return Config{
		Batching: BatchingConfig{
			MaxSize: 10,
			MaxWait: 5 * time.Second,
		},
		Retry: RetryConfig{
			Base:           10 * time.Second,
			Max:            time.Hour,
			FailureHorizon: 7 * 24 * time.Hour,
		},
		DrainDeadline: 30 * time.Second,
		ErrorsBuffer:  128,
	}
}

// Validate checks that every configured duration/size is usable.
func (c Config) Validate() error {
	if c.Batching.MaxSize < 1 {
		return fmt.Errorf("batching max size must be at least 1")
	}
	if c.Batching.MaxWait <= 0 {
		return fmt.Errorf("batching max wait must be positive")
	}
	if c.Retry.Base <= 0 || c.Retry.Max <= 0 {
		return fmt.Errorf("retry base and max must be positive")
	}
	if c.Retry.Max < c.Retry.Base {
		return fmt.Errorf("retry max must not be smaller than retry base")
	}
	if c.Retry.FailureHorizon <= 0 {
		return fmt.Errorf("retry failure horizon must be positive")
	}
	if c.Retention.DeliveredTTL < 0 || c.Retention.FailedTTL < 0 {
		return fmt.Errorf("retention ttls cannot be negative")
	}
	if c.DrainDeadline <= 0 {
		return fmt.Errorf("drain deadline must be positive")
	}
	if c.ErrorsBuffer < 1 {
		return fmt.Errorf("errors buffer must be at least 1")
	}
	return nil
}

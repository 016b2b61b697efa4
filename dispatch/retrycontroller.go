package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hookrelay/dispatch/webhook"
)

/* RetryController owns one webhook's in-order retry queue: at most one
 * dispatch for this webhook is ever in flight, and the queue is only ever
 * touched by the controller's own tick loop plus Enqueue appending to the
 * tail, so no additional locking is needed around dispatch itself.
 *
 * Backoff follows cenkalti/backoff/v4's ExponentialBackOff with zero
 * randomization, so NextBackOff() returns exactly min(base·2^attempts, max)
 * on each successive failed attempt, and Reset() returns it to base.
 */
type RetryController struct {
	ctx        context.Context
	webhook    webhook.Webhook
	dispatcher *Dispatcher
	stateCache *StateCache
	errors     *ErrorChannel
	horizon    time.Duration

	mu             sync.Mutex
	queue          []webhook.WebhookEvent
	firstFailureAt time.Time
	backoff        *backoff.ExponentialBackOff
	ticking        bool
	skipNextWait   bool
}

// NewRetryController creates a RetryController for wh. ctx bounds the
// controller's tick loop; it should be the engine's lifetime context, not
// a per-call one, since the loop outlives any single Enqueue call.
func NewRetryController(ctx context.Context, wh webhook.Webhook, dispatcher *Dispatcher, stateCache *StateCache, errors *ErrorChannel, cfg RetryConfig) *RetryController {
	return &RetryController{
		ctx:        ctx,
		webhook:    wh,
		dispatcher: dispatcher,
		stateCache: stateCache,
		errors:     errors,
		horizon:    cfg.FailureHorizon,
		backoff:    newExponentialBackoff(cfg),
	}
}

func newExponentialBackoff(cfg RetryConfig) *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     cfg.Base,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         cfg.Max,
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

// Enqueue appends events to the tail of the retry queue. If the controller
// is idle this also transitions the webhook Enabled -> Retrying and starts
// the tick loop; if it is already ticking the events simply join the
// queue, never creating a second in-flight attempt.
func (c *RetryController) Enqueue(events []webhook.WebhookEvent) {
	c.mu.Lock()
	if c.firstFailureAt.IsZero() {
		c.firstFailureAt = time.Now()
	}
	c.queue = append(c.queue, events...)
	wasTicking := c.ticking
	c.ticking = true
	c.mu.Unlock()

	if !wasTicking {
		_ = c.stateCache.SetStatus(c.ctx, c.webhook.ID, webhook.NewRetrying(time.Now()))
		go c.run()
	}
}

func (c *RetryController) run() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.ticking = false
			c.firstFailureAt = time.Time{}
			c.backoff.Reset()
			c.mu.Unlock()
			_ = c.stateCache.SetStatus(c.ctx, c.webhook.ID, webhook.NewEnabled())
			return
		}
		var wait time.Duration
		if c.skipNextWait {
			c.skipNextWait = false
		} else {
			wait = c.backoff.NextBackOff()
		}
		c.mu.Unlock()

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(wait):
		}

		c.mu.Lock()
		batch := c.nextBatchLocked()
		c.mu.Unlock()

		du := NewDispatch(c.webhook, batch, c.webhook.DeliveryMode.IsBatched() && len(batch) > 1)
		outcome := c.dispatcher.Dispatch(c.ctx, du)

		if c.recordOutcome(batch, outcome) {
			return
		}
	}
}

// nextBatchLocked selects the events for the next attempt: the whole queue
// for Batched modes (a failed batch always re-dispatches as a whole batch),
// or just the head event for Single modes. Caller holds c.mu.
func (c *RetryController) nextBatchLocked() []webhook.WebhookEvent {
	if c.webhook.DeliveryMode.IsBatched() {
		return c.queue
	}
	return c.queue[:1]
}

// recordOutcome applies the result of one attempt to the queue and webhook
// state, returning true if the controller's loop should stop.
func (c *RetryController) recordOutcome(attempted []webhook.WebhookEvent, outcome Outcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = c.queue[len(attempted):]

	if outcome.Success {
		c.backoff.Reset()
		if len(c.queue) == 0 {
			c.firstFailureAt = time.Time{}
		} else {
			c.skipNextWait = true
		}
		return false
	}

	c.queue = append(attempted, c.queue...)

	if !c.firstFailureAt.IsZero() && time.Since(c.firstFailureAt) >= c.horizon && len(c.queue) > 0 {
		c.queue = nil
		c.ticking = false
		c.firstFailureAt = time.Time{}
		c.backoff.Reset()
		go func() {
			_ = c.stateCache.SetStatus(c.ctx, c.webhook.ID, webhook.NewUnavailable(time.Now()))
			c.errors.Emit(webhook.WebhookUnavailableError{WebhookID: c.webhook.ID})
		}()
		return true
	}

	return false
}

// QueueDepth reports how many events are currently pending retry, used by
// metrics collection and tests.
func (c *RetryController) QueueDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

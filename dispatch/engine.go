package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/hookrelay/dispatch/webhook"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"
)

/* Engine is the top-level dispatch pipeline: it subscribes to new and
 * crash-recovered events, resolves each to its webhook, and routes it to
 * the Dispatcher directly, through the Batcher, or onto a per-webhook
 * RetryController, per the webhook's delivery mode and current status.
 * Construction takes only interfaces, per the "struct of interfaces, no
 * global singletons" layering: nothing here reaches for a package-level
 * dependency.
 */
type Engine struct {
	webhooks   webhook.WebhookRepo
	events     webhook.WebhookEventRepo
	client     webhook.HttpClient
	stateCache *StateCache
	errors     *ErrorChannel
	dispatcher *Dispatcher
	batcher    *Batcher
	cfg        Config

	mu               sync.Mutex
	retryControllers map[int64]*RetryController

	pool           *pool.ContextPool
	dispatchCtx    context.Context
	dispatchCancel context.CancelFunc
	subCancel      context.CancelFunc
	done           chan struct{}
}

// NewEngine wires an Engine over the given capabilities and configuration.
func NewEngine(webhooks webhook.WebhookRepo, events webhook.WebhookEventRepo, stateRepo webhook.WebhookStateRepo, client webhook.HttpClient, cfg Config) *Engine {
	errs := NewErrorChannel(cfg.ErrorsBuffer)
	e := &Engine{
		webhooks:         webhooks,
		events:           events,
		client:           client,
		stateCache:       NewStateCache(stateRepo),
		errors:           errs,
		cfg:              cfg,
		retryControllers: make(map[int64]*RetryController),
	}
	e.dispatcher = NewDispatcher(events, client, errs, cfg.Retention)
	e.batcher = NewBatcher(cfg.Batching.MaxSize, cfg.Batching.MaxWait, e.emitBatch)
	return e
}

// Errors returns a subscription to structural errors (missing webhooks,
// webhooks going Unavailable, repository failures). Subscribe before Start
// so no early error is missed.
func (e *Engine) Errors() <-chan error {
	return e.errors.Subscribe()
}

// Start reloads any crash-recovered Delivering events, then subscribes to
// new events and operator-driven webhook status updates. It returns once
// startup recovery has completed; the subscriptions run in the background
// until Shutdown.
func (e *Engine) Start(ctx context.Context) error {
	subCtx, subCancel := context.WithCancel(ctx)
	dispatchCtx, dispatchCancel := context.WithCancel(ctx)
	e.subCancel = subCancel
	e.dispatchCancel = dispatchCancel
	e.dispatchCtx = dispatchCtx
	e.pool = pool.New().WithMaxGoroutines(64).WithContext(dispatchCtx)

	if err := e.recoverDelivering(ctx); err != nil {
		subCancel()
		dispatchCancel()
		return fmt.Errorf("recovering in-flight events: %w", err)
	}

	newEvents, err := e.events.SubscribeToNewEvents(subCtx)
	if err != nil {
		subCancel()
		dispatchCancel()
		return fmt.Errorf("subscribing to new events: %w", err)
	}

	webhookUpdates, err := e.webhooks.SubscribeToWebhookUpdates(subCtx)
	if err != nil {
		subCancel()
		dispatchCancel()
		return fmt.Errorf("subscribing to webhook updates: %w", err)
	}

	g, gCtx := errgroup.WithContext(subCtx)
	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case ev, ok := <-newEvents:
				if !ok {
					return nil
				}
				e.handle(dispatchCtx, ev)
			}
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case upd, ok := <-webhookUpdates:
				if !ok {
					return nil
				}
				_ = e.stateCache.SetStatus(gCtx, upd.WebhookID, upd.Status)
			}
		}
	})

	e.done = make(chan struct{})
	go func() {
		_ = g.Wait()
		close(e.done)
	}()

	return nil
}

// recoverDelivering re-enqueues every event still Delivering at startup —
// work a previous process accepted but never confirmed — through the same
// routing path as a freshly arrived event.
func (e *Engine) recoverDelivering(ctx context.Context) error {
	delivering, err := e.events.GetEventsByStatuses(ctx, []webhook.EventStatus{webhook.Delivering})
	if err != nil {
		return err
	}
	for _, ev := range delivering {
		e.handle(e.dispatchCtx, ev)
	}
	return nil
}

// Shutdown stops accepting new events, flushes every open batch once, and
// waits up to the configured drain deadline for in-flight dispatches to
// finish before cancelling them. Events still Delivering when cancelled
// are left that way; they are recovered on the next Start.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.subCancel == nil {
		return nil
	}

	e.subCancel()
	<-e.done

	e.batcher.Flush()

	drainCtx, cancel := context.WithTimeout(context.Background(), e.cfg.DrainDeadline)
	defer cancel()

	waitDone := make(chan error, 1)
	go func() { waitDone <- e.pool.Wait() }()

	var err error
	select {
	case err = <-waitDone:
	case <-drainCtx.Done():
		err = fmt.Errorf("drain deadline exceeded: %w", drainCtx.Err())
	}

	e.dispatchCancel()
	e.errors.Close()
	return err
}

// handle resolves ev's webhook and routes it per the delivery mode table:
// disabled/unavailable webhooks are dropped (Disabled is read from the
// webhook record and the state cache, Unavailable from the state cache),
// retrying webhooks join the existing retry queue, batched modes
// accumulate, single modes dispatch immediately.
func (e *Engine) handle(ctx context.Context, ev webhook.WebhookEvent) {
	wh, ok, err := e.webhooks.GetWebhook(ctx, ev.WebhookID)
	if err != nil {
		e.errors.Emit(webhook.RepoError{Cause: err})
		return
	}
	if !ok {
		e.errors.Emit(webhook.MissingWebhookError{WebhookID: ev.WebhookID})
		return
	}
	if wh.Status.Kind == webhook.Disabled {
		return
	}

	status, err := e.stateCache.Get(ctx, wh.ID)
	if err != nil {
		e.errors.Emit(err)
		return
	}

	switch status.Kind {
	case webhook.Disabled, webhook.Unavailable:
		return
	case webhook.Retrying:
		e.retryControllerFor(ctx, wh).Enqueue([]webhook.WebhookEvent{ev})
		return
	}

	if wh.DeliveryMode.IsBatched() {
		e.batcher.Add(ev, wh.MaxBatchSize, wh.MaxBatchWait)
		return
	}

	e.submit(NewDispatch(wh, []webhook.WebhookEvent{ev}, false))
}

// emitBatch is the Batcher's emission callback: it re-resolves the webhook
// (accumulators only carry events, not webhooks) and submits the drained
// batch as one Dispatch.
func (e *Engine) emitBatch(key webhook.BatchKey, events []webhook.WebhookEvent) {
	wh, ok, err := e.webhooks.GetWebhook(e.dispatchCtx, key.WebhookID)
	if err != nil {
		e.errors.Emit(webhook.RepoError{Cause: err})
		return
	}
	if !ok {
		e.errors.Emit(webhook.MissingWebhookError{WebhookID: key.WebhookID})
		return
	}

	e.submit(NewDispatch(wh, events, true))
}

// submit runs du's dispatch in the bounded in-flight pool, recovering any
// panic from request construction or response classification as an
// InternalError rather than losing the goroutine, and handing failed
// AtLeastOnce dispatches to that webhook's RetryController.
func (e *Engine) submit(du Dispatch) {
	e.pool.Go(func(ctx context.Context) error {
		defer func() {
			if r := recover(); r != nil {
				e.errors.Emit(webhook.InternalError{Cause: fmt.Errorf("panic dispatching webhook %d: %v", du.Webhook.ID, r)})
			}
		}()

		outcome := e.dispatcher.Dispatch(ctx, du)
		if !outcome.Success && du.Webhook.DeliveryMode.IsAtLeastOnce() {
			e.retryControllerFor(ctx, du.Webhook).Enqueue(du.Events)
		}
		return nil
	})
}

// retryControllerFor returns the webhook's RetryController, creating it
// lazily on first use so a webhook that never fails never needs one.
func (e *Engine) retryControllerFor(ctx context.Context, wh webhook.Webhook) *RetryController {
	e.mu.Lock()
	defer e.mu.Unlock()

	rc, ok := e.retryControllers[wh.ID]
	if !ok {
		rc = NewRetryController(e.dispatchCtx, wh, e.dispatcher, e.stateCache, e.errors, e.cfg.Retry)
		e.retryControllers[wh.ID] = rc
	}
	return rc
}

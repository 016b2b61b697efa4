package dispatch

import (
	"sync"
	"time"

	"github.com/hookrelay/dispatch/webhook"
)

// EmitFunc is invoked with a drained batch of events sharing one BatchKey,
// either because the batch reached its size limit or its time window
// elapsed.
type EmitFunc func(key webhook.BatchKey, events []webhook.WebhookEvent)

/* Batcher holds one time/size-windowed accumulator per BatchKey. An event
 * starts its key's window on arrival if none is running; the window closes
 * and emits when either maxSize events have accumulated or maxWait has
 * elapsed, whichever comes first.
 */
type Batcher struct {
	mu           sync.Mutex
	accumulators map[webhook.BatchKey]*accumulator
	maxSize      int
	maxWait      time.Duration
	emit         EmitFunc
}

type accumulator struct {
	events  []webhook.WebhookEvent
	timer   *time.Timer
	maxSize int
}

// NewBatcher creates a Batcher that calls emit whenever a key's window
// closes, using maxSize/maxWait for any key whose webhook carries no
// override.
func NewBatcher(maxSize int, maxWait time.Duration, emit EmitFunc) *Batcher {
	return &Batcher{
		accumulators: make(map[webhook.BatchKey]*accumulator),
		maxSize:      maxSize,
		maxWait:      maxWait,
		emit:         emit,
	}
}

// Add appends e to its BatchKey's accumulator. The first event for a key
// starts its wait timer and fixes that key's window for its lifetime;
// maxSize/maxWait override the Batcher's defaults when non-nil, letting a
// webhook's registration settings take effect per BatchKey. Reaching the
// effective maxSize flushes immediately.
func (b *Batcher) Add(e webhook.WebhookEvent, maxSize *int, maxWait *time.Duration) {
	key := e.BatchKey()

	effSize := b.maxSize
	if maxSize != nil {
		effSize = *maxSize
	}
	effWait := b.maxWait
	if maxWait != nil {
		effWait = *maxWait
	}

	b.mu.Lock()
	acc, ok := b.accumulators[key]
	if !ok {
		acc = &accumulator{maxSize: effSize}
		b.accumulators[key] = acc
		acc.timer = time.AfterFunc(effWait, func() { b.flush(key) })
	}
	acc.events = append(acc.events, e)
	reachedMax := len(acc.events) >= acc.maxSize
	b.mu.Unlock()

	if reachedMax {
		b.flush(key)
	}
}

// flush drains and emits key's accumulator if it still holds events. The
// size trigger and the wait timer can race to call flush for the same key;
// whichever observes a non-empty accumulator first wins, the other is a
// no-op.
func (b *Batcher) flush(key webhook.BatchKey) {
	b.mu.Lock()
	acc, ok := b.accumulators[key]
	if !ok {
		b.mu.Unlock()
		return
	}
	if len(acc.events) == 0 {
		delete(b.accumulators, key)
		b.mu.Unlock()
		return
	}
	events := acc.events
	acc.timer.Stop()
	delete(b.accumulators, key)
	b.mu.Unlock()

	b.emit(key, events)
}

// Flush drains every open accumulator immediately, used during shutdown to
// give in-flight batches a final best-effort dispatch rather than losing
// them to the drain deadline.
func (b *Batcher) Flush() {
	b.mu.Lock()
	keys := make([]webhook.BatchKey, 0, len(b.accumulators))
	for key := range b.accumulators {
		keys = append(keys, key)
	}
	b.mu.Unlock()

	for _, key := range keys {
		b.flush(key)
	}
}

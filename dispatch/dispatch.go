package dispatch

import (
	"github.com/google/uuid"
	"github.com/hookrelay/dispatch/webhook"
)

/* Dispatch is one outgoing delivery attempt: either a single event or an
 * ordered batch of events sharing a BatchKey, addressed to one webhook.
 * CorrelationID ties together the attempt's log lines and any resulting
 * error, independent of retries: each attempt gets its own.
 */
type Dispatch struct {
	Webhook       webhook.Webhook
	Events        []webhook.WebhookEvent
	Batched       bool
	CorrelationID string
}

// NewDispatch builds a Dispatch with a fresh correlation id.
func NewDispatch(wh webhook.Webhook, events []webhook.WebhookEvent, batched bool) Dispatch {
	return Dispatch{
		Webhook:       wh,
		Events:        events,
		Batched:       batched,
		CorrelationID: uuid.NewString(),
	}
}

// Outcome is the result of submitting a Dispatch to the HTTP client.
type Outcome struct {
	Success bool
	Err     error
}

package routes

import (
	"fmt"
	"strings"
	"time"

	"github.com/hookrelay/dispatch/webhook"
	"github.com/hookrelay/dispatch/webhook/payload"
	"github.com/hookrelay/dispatch/webhook/signature"
)

/* Registration is an operator-declared webhook, as read from the registry
 * file. It carries everything needed to seed a webhook.Webhook plus
 * per-webhook overrides of the engine's default batching settings.
 */
type Registration struct {
	WebhookID        int64
	URL              string
	Label            string
	Mode             webhook.DeliveryMode
	SigningSecret    string
	EventTypeFilters []string
	MaxBatchSize     *int
	MaxBatchWait     *int // seconds
}

// Validate checks if the registration is valid.
func (r *Registration) Validate() error {
	if r.WebhookID <= 0 {
		return fmt.Errorf("webhook_id must be positive")
	}
	if r.URL == "" {
		return fmt.Errorf("url cannot be empty for webhook %d", r.WebhookID)
	}
	if err := r.Mode.Validate(); err != nil {
		return fmt.Errorf("invalid delivery mode for webhook %d: %w", r.WebhookID, err)
	}
	if r.SigningSecret != "" {
		if !strings.HasPrefix(r.SigningSecret, signature.SecretPrefix) {
			return fmt.Errorf("signing_secret must start with %s for webhook %d", signature.SecretPrefix, r.WebhookID)
		}
		if _, err := signature.ParseSecret(r.SigningSecret); err != nil {
			return fmt.Errorf("invalid signing_secret for webhook %d: %w", r.WebhookID, err)
		}
	}
	for _, eventType := range r.EventTypeFilters {
		if err := payload.ValidateEventType(eventType); err != nil {
			return fmt.Errorf("invalid event_type %q for webhook %d: %w", eventType, r.WebhookID, err)
		}
	}
	if r.MaxBatchSize != nil && *r.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be at least 1 for webhook %d", r.WebhookID)
	}
	if r.MaxBatchWait != nil && *r.MaxBatchWait < 0 {
		return fmt.Errorf("max_batch_wait_seconds cannot be negative for webhook %d", r.WebhookID)
	}
	return nil
}

// ToWebhook converts a validated registration into a webhook.Webhook, ready
// for Repository.PutWebhook. Newly registered webhooks start Enabled.
func (r *Registration) ToWebhook() webhook.Webhook {
	wh := webhook.Webhook{
		ID:               r.WebhookID,
		URL:              r.URL,
		Label:            r.Label,
		Status:           webhook.NewEnabled(),
		DeliveryMode:     r.Mode,
		SigningSecret:    r.SigningSecret,
		EventTypeFilters: r.EventTypeFilters,
		MaxBatchSize:     r.MaxBatchSize,
	}
	if r.MaxBatchWait != nil {
		wait := time.Duration(*r.MaxBatchWait) * time.Second
		wh.MaxBatchWait = &wait
	}
	return wh
}

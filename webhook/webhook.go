package webhook

import "time"

/* Webhook represents an operator-registered HTTP callback destination.
 * Uses value semantics as it represents data, not behavior.
 */
type Webhook struct {
	ID               int64
	URL              string
	Label            string
	Status           Status
	DeliveryMode     DeliveryMode
	SigningSecret    string         // optional, Standard Webhooks "whsec_" format
	EventTypeFilters []string       // optional hierarchical allow-list, e.g. "user.*"
	MaxBatchSize     *int           // overrides the engine's default batch size when set
	MaxBatchWait     *time.Duration // overrides the engine's default batch wait when set
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks the invariants in the webhook's own data, independent of
// any repository round trip.
func (w Webhook) Validate() error {
	if w.URL == "" {
		return errEmptyURL
	}
	if err := w.DeliveryMode.Validate(); err != nil {
		return err
	}
	return w.Status.Validate()
}

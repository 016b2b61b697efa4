package webhook

import (
	"context"
	"time"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// WebhookUpdate is one entry on the stream of operator-driven webhook status
// changes (e.g. an operator re-enabling a previously Unavailable webhook).
type WebhookUpdate struct {
	WebhookID int64
	Status    Status
}

// WebhookReader provides read operations for webhook registrations.
type WebhookReader interface {
	/* Context is always the first parameter in functions that do I/O
	 * This allows for cancellation, timeouts, and shared values
	 */
	GetWebhook(ctx context.Context, id int64) (Webhook, bool, error)
}

// WebhookWriter provides write operations for webhook registrations.
type WebhookWriter interface {
	SetWebhookStatus(ctx context.Context, id int64, status Status) error
}

// WebhookUpdateSubscriber streams operator-driven status changes, used by
// the engine to notice re-enables of Unavailable webhooks.
type WebhookUpdateSubscriber interface {
	SubscribeToWebhookUpdates(ctx context.Context) (<-chan WebhookUpdate, error)
}

// WebhookRepo is the capability the dispatch engine consumes for webhook
// registrations.
type WebhookRepo interface {
	WebhookReader
	WebhookWriter
	WebhookUpdateSubscriber
}

// EventReader provides read operations for webhook events.
type EventReader interface {
	GetEvent(ctx context.Context, key EventKey) (WebhookEvent, bool, error)
	// GetEventsByStatuses returns every event in one of the given statuses,
	// used at startup to find crash-recovered Delivering events.
	GetEventsByStatuses(ctx context.Context, statuses []EventStatus) ([]WebhookEvent, error)
}

// EventWriter provides write operations for webhook events.
type EventWriter interface {
	CreateEvent(ctx context.Context, e WebhookEvent) error
	SetEventStatus(ctx context.Context, key EventKey, status EventStatus) error
	/* SetTTL sets an expiration time on an event's stored record.
	 * Used to automatically clean up delivered and failed events.
	 */
	SetTTL(ctx context.Context, key EventKey, ttl time.Duration) error
}

// EventSubscriber streams newly created events for dispatch.
type EventSubscriber interface {
	SubscribeToNewEvents(ctx context.Context) (<-chan WebhookEvent, error)
}

// WebhookEventRepo is the capability the dispatch engine consumes for events.
type WebhookEventRepo interface {
	EventReader
	EventWriter
	EventSubscriber
}

// WebhookStateRepo is the durable (webhookId -> status) key/value store the
// Webhook State Cache write-throughs to. Last-write-wins.
type WebhookStateRepo interface {
	GetStatus(ctx context.Context, id int64) (Status, bool, error)
	SetStatus(ctx context.Context, id int64, status Status) error
}

package webhook

import (
	"context"
	"fmt"

	"github.com/hookrelay/dispatch/webhook/payload"
)

/* Service is the ingestion business logic layer sitting in front of the
 * dispatch engine's event repository: it is the boundary where a producer's
 * event is validated against the webhook's registration (existence, event
 * type filter) before it ever becomes visible to the core as a New event.
 * Uses pointer semantics as it's an API, not data.
 */

// UseCase defines the operations the ingestion HTTP layer needs.
type UseCase interface {
	Submit(ctx context.Context, e WebhookEvent, eventType string) error
}

type Service struct {
	Webhooks WebhookRepo
	Events   WebhookEventRepo
}

// NewService creates a new ingestion service with dependency injection.
func NewService(webhooks WebhookRepo, events WebhookEventRepo) *Service {
	return &Service{
		Webhooks: webhooks,
		Events:   events,
	}
}

// Submit validates the event's target webhook and, if an event type is
// supplied, checks it against the webhook's EventTypeFilters, then stores
// the event as New. The dispatch engine's Subscription Loop observes it
// from there; Submit never touches delivery status itself.
func (s *Service) Submit(ctx context.Context, e WebhookEvent, eventType string) error {
	wh, ok, err := s.Webhooks.GetWebhook(ctx, e.WebhookID)
	if err != nil {
		return fmt.Errorf("looking up webhook: %w", err)
	}
	if !ok {
		return MissingWebhookError{WebhookID: e.WebhookID}
	}
	if eventType != "" && len(wh.EventTypeFilters) > 0 && !payload.MatchesEventType(eventType, wh.EventTypeFilters) {
		return EventTypeFilteredError{WebhookID: e.WebhookID, EventType: eventType}
	}

	e.Status = New
	if err := s.Events.CreateEvent(ctx, e); err != nil {
		return fmt.Errorf("storing event: %w", err)
	}
	return nil
}

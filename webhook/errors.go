package webhook

import "fmt"

var errEmptyURL = fmt.Errorf("webhook url must not be empty")

// MissingWebhookError is surfaced when an event references a webhook id
// that has no registration. The event is dropped.
type MissingWebhookError struct {
	WebhookID int64
}

func (e MissingWebhookError) Error() string {
	return fmt.Sprintf("missing webhook: %d", e.WebhookID)
}

// WebhookUnavailableError is surfaced when a webhook crosses the retry
// failure horizon and transitions to Unavailable.
type WebhookUnavailableError struct {
	WebhookID int64
}

func (e WebhookUnavailableError) Error() string {
	return fmt.Sprintf("webhook unavailable: %d", e.WebhookID)
}

// EventTypeFilteredError is surfaced when a submitted event's type does not
// match the target webhook's EventTypeFilters. The event is rejected before
// it is ever stored.
type EventTypeFilteredError struct {
	WebhookID int64
	EventType string
}

func (e EventTypeFilteredError) Error() string {
	return fmt.Sprintf("event type %q does not match webhook %d filters", e.EventType, e.WebhookID)
}

// InvalidStateChangeError is surfaced when a repository refuses a status
// transition, e.g. because it violates EventStatus.CanTransitionTo.
type InvalidStateChangeError struct {
	Key  EventKey
	From EventStatus
	To   EventStatus
}

func (e InvalidStateChangeError) Error() string {
	return fmt.Sprintf("invalid event state change for %+v: %s -> %s", e.Key, e.From, e.To)
}

// RepoError wraps a failure from an underlying repository call.
type RepoError struct {
	Cause error
}

func (e RepoError) Error() string {
	return fmt.Sprintf("repository error: %v", e.Cause)
}

func (e RepoError) Unwrap() error { return e.Cause }

// HttpError wraps a connection/IO failure from the HTTP client.
type HttpError struct {
	Cause error
}

func (e HttpError) Error() string {
	return fmt.Sprintf("http error: %v", e.Cause)
}

func (e HttpError) Unwrap() error { return e.Cause }

// InternalError marks an invariant violation inside the core itself.
type InternalError struct {
	Cause error
}

func (e InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Cause)
}

func (e InternalError) Unwrap() error { return e.Cause }

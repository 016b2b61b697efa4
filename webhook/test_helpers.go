package webhook

import "github.com/stretchr/testify/mock"

// MatchWebhook creates a custom matcher for mock call arguments, used for
// Webhook, WebhookEvent, and any other argument type under test.
func MatchWebhook[T any](matcher func(T) bool) interface{} {
	return mock.MatchedBy(matcher)
}

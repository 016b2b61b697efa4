package webhook

import "fmt"

/* BatchKey is the grouping key the Batcher accumulates events under:
 * events for the same webhook sharing a Content-Type/Accept pair may be
 * delivered together in a single batched request.
 */
type BatchKey struct {
	WebhookID   int64
	ContentType string
	Accept      string
}

// String renders a stable identifier, useful as a map key in logs/metrics.
func (k BatchKey) String() string {
	return fmt.Sprintf("%d:%s:%s", k.WebhookID, k.ContentType, k.Accept)
}

// Headers returns the headers shared by every event under this key: just
// Content-Type and Accept, in that order, omitting either if empty.
func (k BatchKey) Headers() Headers {
	var h Headers
	if k.ContentType != "" {
		h = h.With("Content-Type", k.ContentType)
	}
	if k.Accept != "" {
		h = h.With("Accept", k.Accept)
	}
	return h
}

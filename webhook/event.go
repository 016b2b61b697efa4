package webhook

import "strings"

/* EventKey uniquely identifies an event within a webhook. EventID is only
 * guaranteed unique per webhook, so the pair is the global key.
 */
type EventKey struct {
	EventID   int64
	WebhookID int64
}

// HeaderField is one ordered (name, value) pair. Headers may repeat a name
// (e.g. multiple Accept values), so they are modeled as an ordered list
// rather than a map.
type HeaderField struct {
	Name  string
	Value string
}

// Headers is an ordered, possibly-repeating multimap of header fields.
type Headers []HeaderField

// Get returns the first value for name (case-insensitive), and whether it
// was present.
func (h Headers) Get(name string) (string, bool) {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value recorded for name, in arrival order.
func (h Headers) Values(name string) []string {
	var out []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// With returns a copy of h with (name, value) appended.
func (h Headers) With(name, value string) Headers {
	out := make(Headers, len(h), len(h)+1)
	copy(out, h)
	return append(out, HeaderField{Name: name, Value: value})
}

// Equal reports whether two header sets carry the same fields in the same
// order. Used to check "the request's headers equal the BatchKey's headers".
func (h Headers) Equal(other Headers) bool {
	if len(h) != len(other) {
		return false
	}
	for i := range h {
		if h[i].Name != other[i].Name || h[i].Value != other[i].Value {
			return false
		}
	}
	return true
}

/* WebhookEvent is a unit of data addressed to a webhook. Content is opaque
 * to the dispatch engine; it is forwarded to the target URL verbatim.
 */
type WebhookEvent struct {
	Key       EventKey
	WebhookID int64
	Content   string
	Headers   Headers
	Status    EventStatus
	CreatedAt int64 // unix nanos; kept as an integer so fakes stay comparable
}

// BatchKey computes this event's batching fingerprint: (webhook, content
// type, accept). Events with the same key may share one batched dispatch.
func (e WebhookEvent) BatchKey() BatchKey {
	contentType, _ := e.Headers.Get("Content-Type")
	accept, _ := e.Headers.Get("Accept")
	return BatchKey{
		WebhookID:   e.WebhookID,
		ContentType: contentType,
		Accept:      accept,
	}
}

package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hookrelay/dispatch/webhook"
	"github.com/hookrelay/dispatch/webhook/payload"
)

var eventIDSeq int64

// nextEventID returns a process-wide monotonically increasing id, folded
// together with the current time so ids stay distinct across restarts too.
func nextEventID() int64 {
	n := atomic.AddInt64(&eventIDSeq, 1)
	return time.Now().UnixNano()/1000*1000 + n%1000
}

type eventAcceptedResponse struct {
	WebhookID int64 `json:"webhook_id"`
	EventID   int64 `json:"event_id"`
}

// postEvent handles POST /v1/webhooks/{webhook_id}/events. The body is the
// opaque event content unless it parses as a Standard Webhooks envelope
// (type/timestamp/data), in which case the envelope's type is checked by
// Submit against the webhook's EventTypeFilters before the event is ever
// created.
func postEvent(svc webhook.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		webhookID, err := strconv.ParseInt(chi.URLParam(r, "webhook_id"), 10, 64)
		if err != nil {
			http.Error(w, "webhook_id must be an integer", http.StatusBadRequest)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		var eventType string
		if env, err := payload.Parse(body); err == nil {
			eventType = env.Type
		}

		headers := make(webhook.Headers, 0, len(r.Header))
		for name, values := range r.Header {
			for _, v := range values {
				headers = headers.With(name, v)
			}
		}

		event := webhook.WebhookEvent{
			Key:       webhook.EventKey{WebhookID: webhookID, EventID: nextEventID()},
			WebhookID: webhookID,
			Content:   string(body),
			Headers:   headers,
		}

		if err := svc.Submit(r.Context(), event, eventType); err != nil {
			var missing webhook.MissingWebhookError
			var filtered webhook.EventTypeFilteredError
			switch {
			case errors.As(err, &missing):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.As(err, &filtered):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(eventAcceptedResponse{WebhookID: webhookID, EventID: event.Key.EventID})
	}
}

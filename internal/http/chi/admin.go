package chi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hookrelay/dispatch/routes"
	"github.com/hookrelay/dispatch/webhook"
)

type webhookView struct {
	WebhookID     int64    `json:"webhook_id"`
	URL           string   `json:"url"`
	Label         string   `json:"label"`
	DeliveryMode  string   `json:"delivery_mode"`
	EventTypes    []string `json:"event_type_filters,omitempty"`
	HasSigningKey bool     `json:"has_signing_key"`
}

// getWebhooks handles GET /v1/webhooks, listing the operator registry
// loaded from webhooks.yaml.
func getWebhooks(registry *routes.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regs := registry.List()
		views := make([]webhookView, 0, len(regs))
		for _, reg := range regs {
			views = append(views, webhookView{
				WebhookID:     reg.WebhookID,
				URL:           reg.URL,
				Label:         reg.Label,
				DeliveryMode:  reg.Mode.String(),
				EventTypes:    reg.EventTypeFilters,
				HasSigningKey: reg.SigningSecret != "",
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	}
}

// postEnable handles POST /v1/webhooks/{webhook_id}/enable, the operator
// escape hatch out of Unavailable or Disabled. The handler only writes the
// new status; the engine already discarded the webhook's retry queue and
// reset its backoff when it marked the webhook Unavailable, so the next
// failure starts a fresh backoff schedule.
func postEnable(webhooks webhook.WebhookRepo, registry *routes.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		webhookID, err := strconv.ParseInt(chi.URLParam(r, "webhook_id"), 10, 64)
		if err != nil {
			http.Error(w, "webhook_id must be an integer", http.StatusBadRequest)
			return
		}

		if !registry.Exists(webhookID) {
			http.Error(w, "webhook not found in registry", http.StatusNotFound)
			return
		}

		if err := webhooks.SetWebhookStatus(r.Context(), webhookID, webhook.NewEnabled()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

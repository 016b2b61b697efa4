package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"

	"github.com/hookrelay/dispatch/metrics"
	"github.com/hookrelay/dispatch/routes"
	"github.com/hookrelay/dispatch/webhook"
)

// Handlers builds the router for the ingestion and admin HTTP surface:
// producers POST events, operators list/enable webhooks and scrape
// metrics.
func Handlers(webhookService webhook.UseCase, webhooks webhook.WebhookRepo, registry *routes.Loader, exporter *metrics.OTelExporter) *chi.Mux {
	logger := httplog.NewLogger("dispatch-engine", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))

	r.Get("/health", health())
	r.Post("/v1/webhooks/{webhook_id}/events", postEvent(webhookService))
	r.Get("/v1/webhooks", getWebhooks(registry))
	r.Post("/v1/webhooks/{webhook_id}/enable", postEnable(webhooks, registry))

	if exporter != nil {
		r.Method(http.MethodGet, "/metrics", exporter.ServeHTTP())
	}

	return r
}

func health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

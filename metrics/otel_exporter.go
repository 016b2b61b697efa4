package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards.
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector

	meter             metric.Meter
	queueLengthGauge  metric.Int64ObservableGauge
	statusCountGauge  metric.Int64ObservableGauge
	throughputGauge   metric.Int64ObservableGauge
	webhookStateGauge metric.Int64ObservableGauge
	retryQueueGauge   metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format.
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"dispatch-engine",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments.
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.queueLengthGauge, err = oe.meter.Int64ObservableGauge(
		"dispatch.queue.length",
		metric.WithDescription("Number of events awaiting first dispatch per webhook"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeQueueLengths),
	)
	if err != nil {
		return fmt.Errorf("creating queue length gauge: %w", err)
	}

	oe.statusCountGauge, err = oe.meter.Int64ObservableGauge(
		"dispatch.event.status.count",
		metric.WithDescription("Number of events by status"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeStatusCounts),
	)
	if err != nil {
		return fmt.Errorf("creating status count gauge: %w", err)
	}

	oe.throughputGauge, err = oe.meter.Int64ObservableGauge(
		"dispatch.throughput",
		metric.WithDescription("Number of events delivered over time window"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeThroughput),
	)
	if err != nil {
		return fmt.Errorf("creating throughput gauge: %w", err)
	}

	oe.webhookStateGauge, err = oe.meter.Int64ObservableGauge(
		"dispatch.webhook.state.count",
		metric.WithDescription("Number of registered webhooks by status kind"),
		metric.WithUnit("{webhooks}"),
		metric.WithInt64Callback(oe.observeWebhookStateCounts),
	)
	if err != nil {
		return fmt.Errorf("creating webhook state gauge: %w", err)
	}

	oe.retryQueueGauge, err = oe.meter.Int64ObservableGauge(
		"dispatch.retry.queue.depth",
		metric.WithDescription("Pending retry queue depth per webhook"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeRetryQueueDepths),
	)
	if err != nil {
		return fmt.Errorf("creating retry queue depth gauge: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observeQueueLengths(ctx context.Context, observer metric.Int64Observer) error {
	queueLengths, err := oe.collector.GetQueueLengths(ctx)
	if err != nil {
		return err
	}

	for webhookID, length := range queueLengths {
		observer.Observe(length, metric.WithAttributes(
			attribute.String("webhook.id", strconv.FormatInt(webhookID, 10)),
		))
	}

	return nil
}

func (oe *OTelExporter) observeStatusCounts(ctx context.Context, observer metric.Int64Observer) error {
	statusCounts, err := oe.collector.GetStatusCounts(ctx)
	if err != nil {
		return err
	}

	for status, count := range statusCounts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("event.status", status),
		))
	}

	return nil
}

func (oe *OTelExporter) observeThroughput(ctx context.Context, observer metric.Int64Observer) error {
	throughput, err := oe.collector.GetThroughput(ctx)
	if err != nil {
		return err
	}

	observer.Observe(throughput.LastMinute, metric.WithAttributes(
		attribute.String("time.window", "1m"),
	))
	observer.Observe(throughput.LastFiveMinutes, metric.WithAttributes(
		attribute.String("time.window", "5m"),
	))
	observer.Observe(throughput.LastFifteenMinutes, metric.WithAttributes(
		attribute.String("time.window", "15m"),
	))

	return nil
}

func (oe *OTelExporter) observeWebhookStateCounts(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.GetWebhookStateCounts(ctx)
	if err != nil {
		return err
	}

	for kind, count := range counts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("webhook.status", kind),
		))
	}

	return nil
}

func (oe *OTelExporter) observeRetryQueueDepths(ctx context.Context, observer metric.Int64Observer) error {
	depths, err := oe.collector.GetRetryQueueDepths(ctx)
	if err != nil {
		return err
	}

	for webhookID, depth := range depths {
		observer.Observe(depth, metric.WithAttributes(
			attribute.String("webhook.id", strconv.FormatInt(webhookID, 10)),
		))
	}

	return nil
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler.
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider.
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}

package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aidaptics/lead-relay/booking"
	"github.com/aidaptics/lead-relay/forward"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export in Prometheus format.
// It implements forward.Recorder, ratelimit.Observer and booking.Recorder.
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
	collector     Collector

	// OTel meters and instruments
	meter            metric.Meter
	decisions        metric.Int64Counter
	attempts         metric.Int64Counter
	attemptDuration  metric.Float64Histogram
	flows            metric.Int64Counter
	trackedKeysGauge metric.Int64ObservableGauge
	storedGauge      metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter backed by its own registry
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := prometheus.NewRegistry()

	// Create Prometheus exporter
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		"lead-relay",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.decisions, err = oe.meter.Int64Counter(
		"relay.ratelimit.decisions",
		metric.WithDescription("Rate limit decisions per limiter"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return fmt.Errorf("creating decisions counter: %w", err)
	}

	oe.attempts, err = oe.meter.Int64Counter(
		"relay.forward.attempts",
		metric.WithDescription("Delivery attempts per destination and outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return fmt.Errorf("creating attempts counter: %w", err)
	}

	oe.attemptDuration, err = oe.meter.Float64Histogram(
		"relay.forward.duration",
		metric.WithDescription("Duration of delivery attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}

	oe.flows, err = oe.meter.Int64Counter(
		"relay.booking.flows",
		metric.WithDescription("Finished booking verification flows by final state"),
		metric.WithUnit("{flow}"),
	)
	if err != nil {
		return fmt.Errorf("creating flows counter: %w", err)
	}

	if oe.collector == nil {
		return nil
	}

	// Tracked keys gauge (per limiter)
	oe.trackedKeysGauge, err = oe.meter.Int64ObservableGauge(
		"relay.ratelimit.tracked_keys",
		metric.WithDescription("Number of caller keys tracked per limiter"),
		metric.WithUnit("{key}"),
		metric.WithInt64Callback(oe.observeTrackedKeys),
	)
	if err != nil {
		return fmt.Errorf("creating tracked keys gauge: %w", err)
	}

	// Stored decisions gauge (per limiter and decision)
	oe.storedGauge, err = oe.meter.Int64ObservableGauge(
		"relay.ratelimit.stored_decisions",
		metric.WithDescription("Cumulative decisions recorded in the stats store"),
		metric.WithUnit("{decision}"),
		metric.WithInt64Callback(oe.observeStoredDecisions),
	)
	if err != nil {
		return fmt.Errorf("creating stored decisions gauge: %w", err)
	}

	return nil
}

// observeTrackedKeys is a callback that reports limiter sizes
func (oe *OTelExporter) observeTrackedKeys(ctx context.Context, observer metric.Int64Observer) error {
	tracked, err := oe.collector.TrackedKeys(ctx)
	if err != nil {
		return err
	}

	for name, n := range tracked {
		observer.Observe(n, metric.WithAttributes(
			attribute.String("limiter", name),
		))
	}

	return nil
}

// observeStoredDecisions is a callback that reports totals kept in Redis
func (oe *OTelExporter) observeStoredDecisions(ctx context.Context, observer metric.Int64Observer) error {
	totals, err := oe.collector.Decisions(ctx)
	if err != nil {
		return err
	}

	for name, t := range totals {
		observer.Observe(t.Allowed, metric.WithAttributes(
			attribute.String("limiter", name),
			attribute.String("decision", "allowed"),
		))
		observer.Observe(t.Denied, metric.WithAttributes(
			attribute.String("limiter", name),
			attribute.String("decision", "denied"),
		))
	}

	return nil
}

// ObserveDecision counts a rate limit decision
func (oe *OTelExporter) ObserveDecision(ctx context.Context, limiter string, allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	oe.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("limiter", limiter),
		attribute.String("decision", decision),
	))
}

// RecordAttempt counts a delivery attempt and its duration
func (oe *OTelExporter) RecordAttempt(ctx context.Context, a forward.Attempt) {
	attrs := metric.WithAttributes(
		attribute.String("destination", a.Destination),
		attribute.String("outcome", a.Outcome.String()),
	)
	oe.attempts.Add(ctx, 1, attrs)
	oe.attemptDuration.Record(ctx, a.Duration.Seconds(), attrs)
}

// RecordFlow counts a finished booking flow
func (oe *OTelExporter) RecordFlow(ctx context.Context, r booking.Result) {
	failedAt := ""
	if !r.Success() {
		failedAt = r.FailedAt.String()
	}
	oe.flows.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state", r.State.String()),
		attribute.String("failed_at", failedAt),
	))
}

// Handler serves Prometheus-formatted metrics from the exporter's registry
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, used by tests
func (oe *OTelExporter) Gatherer() prometheus.Gatherer {
	return oe.registry
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}

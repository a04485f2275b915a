package observability

import (
	"context"
	"time"

	"incubator-portal/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/otlptranslator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records lifecycle-level metrics through OpenTelemetry and exposes
// them on the Prometheus registry. A zero value is safe to use and records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	transitions   otelmetric.Int64Counter
	submissions   otelmetric.Int64Counter
	opDuration    otelmetric.Float64Histogram
}

func New(serviceName string, log logger.Logger) *Observability {
	return NewWithRegisterer(serviceName, promclient.DefaultRegisterer, log)
}

func NewWithRegisterer(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(reg),
		prometheus.WithTranslationStrategy(otlptranslator.UnderscoreEscapingWithSuffixes),
	)
	if err != nil {
		log.Warn("failed to create Prometheus exporter", map[string]interface{}{"error": err})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	transitions, _ := meter.Int64Counter(
		"application.status.transitions",
		otelmetric.WithDescription("Committed application status transitions"),
	)

	submissions, _ := meter.Int64Counter(
		"application.submissions",
		otelmetric.WithDescription("Accepted application submissions"),
	)

	opDuration, _ := meter.Float64Histogram(
		"application.operation.duration",
		otelmetric.WithDescription("Application operation duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		transitions:   transitions,
		submissions:   submissions,
		opDuration:    opDuration,
	}
}

func (o *Observability) RecordSubmission(ctx context.Context, program string) {
	if o == nil || o.submissions == nil {
		return
	}
	o.submissions.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("program", program),
	))
}

func (o *Observability) RecordTransition(ctx context.Context, from, to string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (o *Observability) RecordOperation(ctx context.Context, operation string, duration time.Duration, code string) {
	if o == nil || o.opDuration == nil {
		return
	}
	o.opDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("code", code),
	))
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}

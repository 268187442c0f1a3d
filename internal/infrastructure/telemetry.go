package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"inventorydash/internal/models"
)

const (
	ServiceName = "inventory-dashboard"
	MeterName   = "inventorydash"
)

// Telemetry owns the meter provider and the instruments recorded by the
// dashboard and the HTTP layer. Metrics are scraped from Handler.
type Telemetry struct {
	MeterProvider *sdkmetric.MeterProvider
	Handler       http.Handler

	recomputes        metric.Int64Counter
	recomputeDuration metric.Float64Histogram
	filteredRows      metric.Int64Histogram
	exports           metric.Int64Counter
	exportedRows      metric.Int64Counter
	httpRequests      metric.Int64Counter
	httpDuration      metric.Float64Histogram
}

// NewTelemetry sets up an OpenTelemetry meter provider exporting to a private
// Prometheus registry.
func NewTelemetry() (*Telemetry, error) {
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
		sdkmetric.WithReader(exporter),
	)
	meter := mp.Meter(MeterName)

	t := &Telemetry{
		MeterProvider: mp,
		Handler:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	if t.recomputes, err = meter.Int64Counter(
		"dashboard_recomputes",
		metric.WithDescription("Total number of dashboard recomputations"),
	); err != nil {
		return nil, err
	}
	if t.recomputeDuration, err = meter.Float64Histogram(
		"dashboard_recompute_duration",
		metric.WithDescription("Dashboard recomputation duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if t.filteredRows, err = meter.Int64Histogram(
		"dashboard_filtered_rows",
		metric.WithDescription("Rows passing the filters per recomputation"),
	); err != nil {
		return nil, err
	}
	if t.exports, err = meter.Int64Counter(
		"dashboard_exports",
		metric.WithDescription("Total number of exports"),
	); err != nil {
		return nil, err
	}
	if t.exportedRows, err = meter.Int64Counter(
		"dashboard_exported_rows",
		metric.WithDescription("Total number of exported rows"),
	); err != nil {
		return nil, err
	}
	if t.httpRequests, err = meter.Int64Counter(
		"http_requests",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if t.httpDuration, err = meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Telemetry) RecordRecompute(ctx context.Context, m models.Metric, rows int, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("metric", string(m)))
	t.recomputes.Add(ctx, 1, attrs)
	t.recomputeDuration.Record(ctx, d.Seconds(), attrs)
	t.filteredRows.Record(ctx, int64(rows), attrs)
}

func (t *Telemetry) RecordExport(ctx context.Context, format string, rows int) {
	attrs := metric.WithAttributes(attribute.String("format", format))
	t.exports.Add(ctx, 1, attrs)
	t.exportedRows.Add(ctx, int64(rows), attrs)
}

// RecordRequest records one served HTTP request. route is the matched route
// pattern, not the raw path.
func (t *Telemetry) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	t.httpRequests.Add(ctx, 1, attrs)
	t.httpDuration.Record(ctx, d.Seconds(), attrs)
}

// Shutdown flushes and stops the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.MeterProvider.Shutdown(ctx)
}

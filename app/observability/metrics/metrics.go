package metrics

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RouteGenerationRequestsTotal metric.Int64Counter
	RouteGenerationDuration      metric.Float64Histogram
	RoutesRejectedTotal          metric.Int64Counter
	RouteFallbackTotal           metric.Int64Counter
	ProviderFallbackTotal        metric.Int64Counter
	DbQueryErrorsTotal           metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Instruments created before the provider is installed are delegated by otel.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("RoutePlanner")
		var err error
		m := &AppMetrics{}

		m.RouteGenerationRequestsTotal, err = meter.Int64Counter(
			"route_generation_requests_total",
			metric.WithDescription("Total number of route generation requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create route_generation_requests_total: %v", err)
		}

		m.RouteGenerationDuration, err = meter.Float64Histogram(
			"route_generation_duration_seconds",
			metric.WithDescription("Duration of route generation in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create route_generation_duration_seconds: %v", err)
		}

		m.RoutesRejectedTotal, err = meter.Int64Counter(
			"routes_rejected_total",
			metric.WithDescription("Route variants discarded by constraint validation"),
			metric.WithUnit("{route}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create routes_rejected_total: %v", err)
		}

		m.RouteFallbackTotal, err = meter.Int64Counter(
			"route_fallback_total",
			metric.WithDescription("Relaxed fallback routes produced after all variants were rejected"),
			metric.WithUnit("{route}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create route_fallback_total: %v", err)
		}

		m.ProviderFallbackTotal, err = meter.Int64Counter(
			"provider_fallback_total",
			metric.WithDescription("External provider calls answered by the fallback strategy"),
			metric.WithUnit("{call}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create provider_fallback_total: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the application metrics, initializing them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

// ProviderFallback records one fallback for the named provider.
func ProviderFallback(ctx context.Context, provider string) {
	Get().ProviderFallbackTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RouteRejected records a discarded route variant.
func RouteRejected(ctx context.Context, routeType string) {
	Get().RoutesRejectedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("route_type", routeType)))
}

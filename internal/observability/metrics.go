package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsServer serves Prometheus metrics on a separate port.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer creates a metrics HTTP server serving the Prometheus handler
// at the given path on the given port.
func NewMetricsServer(port int, path string, provider *Provider) *MetricsServer {
	mux := http.NewServeMux()

	if provider != nil && provider.promExporter != nil {
		mux.Handle(path, promhttp.Handler())
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}
}

// Start begins serving metrics in a blocking call.
// Returns http.ErrServerClosed on graceful shutdown.
func (ms *MetricsServer) Start() error {
	slog.Info("Starting metrics server", "addr", ms.server.Addr)
	return ms.server.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

// GateMetrics records admission decision counters and check latency.
type GateMetrics struct {
	checks   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewGateMetrics registers the gate's instruments on the global meter provider.
func NewGateMetrics() (*GateMetrics, error) {
	meter := otel.Meter("limitgate/gate")

	checks, err := meter.Int64Counter(
		"gate.checks",
		metric.WithDescription("Number of admission checks by tier and outcome"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"gate.check.duration",
		metric.WithDescription("Duration of admission checks in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &GateMetrics{checks: checks, duration: duration}, nil
}

// RecordCheck counts one decision and its latency. Outcome is one of the
// gate's outcome strings (admitted, rejected, degraded_admit, degraded_reject).
func (gm *GateMetrics) RecordCheck(ctx context.Context, tier, outcome string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("tier", tier),
		attribute.String("outcome", outcome),
	)
	gm.checks.Add(ctx, 1, attrs)
	gm.duration.Record(ctx, seconds, attrs)
}

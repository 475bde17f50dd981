// Package metrics provides Prometheus metrics for recquery
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nainya/recquery/pkg/condition"
	"github.com/nainya/recquery/pkg/query"
)

// Metrics holds all Prometheus metrics for recquery
type Metrics struct {
	Registry *prometheus.Registry

	// gRPC request metrics
	GrpcRequestsTotal    *prometheus.CounterVec
	GrpcRequestDuration  *prometheus.HistogramVec
	GrpcRequestsInFlight prometheus.Gauge
	GrpcRateLimited      prometheus.Counter

	// Query metrics
	QueriesTotal     *prometheus.CounterVec
	QueryDuration    *prometheus.HistogramVec
	RecordsScanned   *prometheus.CounterVec
	RecordsMatched   *prometheus.CounterVec
	DiagnosticsTotal *prometheus.CounterVec

	// Dataset metrics
	DatasetsLoaded prometheus.Gauge
	DatasetRecords *prometheus.GaugeVec

	// Server metrics
	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

var _ query.Observer = (*Metrics)(nil)

// NewMetrics creates all metrics on a fresh registry that also carries the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWith(reg)
}

// NewMetricsWith creates and registers all metrics on reg.
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		Registry:        reg,
		ServerStartTime: time.Now(),
	}

	// gRPC request metrics
	m.GrpcRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recquery_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	m.GrpcRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recquery_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	m.GrpcRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "recquery_grpc_requests_in_flight",
			Help: "Number of gRPC requests currently being processed",
		},
	)

	m.GrpcRateLimited = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "recquery_grpc_rate_limited_total",
			Help: "Total number of gRPC requests rejected by the rate limiter",
		},
	)

	// Query metrics
	m.QueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recquery_queries_total",
			Help: "Total number of engine operations",
		},
		[]string{"operation", "status"},
	)

	m.QueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recquery_query_duration_seconds",
			Help:    "Duration of engine operations in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	m.RecordsScanned = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recquery_records_scanned_total",
			Help: "Total number of records fed into engine operations",
		},
		[]string{"operation"},
	)

	m.RecordsMatched = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recquery_records_matched_total",
			Help: "Total number of records surviving the where filter",
		},
		[]string{"operation"},
	)

	m.DiagnosticsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recquery_diagnostics_total",
			Help: "Total number of recoverable query diagnostics",
		},
		[]string{"operation", "kind"},
	)

	// Dataset metrics
	m.DatasetsLoaded = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "recquery_datasets_loaded",
			Help: "Number of datasets registered with the server",
		},
	)

	m.DatasetRecords = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recquery_dataset_records",
			Help: "Number of records per registered dataset",
		},
		[]string{"dataset"},
	)

	// Server metrics
	m.ServerUptimeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "recquery_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	return m
}

// RunUptime updates the uptime gauge every interval until ctx is done.
func (m *Metrics) RunUptime(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
		}
	}
}

// RecordGrpcRequest records a gRPC request with its status
func (m *Metrics) RecordGrpcRequest(method string, status string, duration time.Duration) {
	m.GrpcRequestsTotal.WithLabelValues(method, status).Inc()
	m.GrpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveQuery records an engine operation.
func (m *Metrics) ObserveQuery(op string, elapsed time.Duration, scanned, matched int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.QueriesTotal.WithLabelValues(op, status).Inc()
	m.QueryDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.RecordsScanned.WithLabelValues(op).Add(float64(scanned))
	m.RecordsMatched.WithLabelValues(op).Add(float64(matched))
}

// ObserveDiagnostic counts a diagnostic, weighted by its repeat count.
func (m *Metrics) ObserveDiagnostic(op string, d condition.Diagnostic) {
	m.DiagnosticsTotal.WithLabelValues(op, d.Kind.String()).Add(float64(max(d.Count, 1)))
}

// SetDataset records the size of a registered dataset.
func (m *Metrics) SetDataset(name string, records int) {
	m.DatasetRecords.WithLabelValues(name).Set(float64(records))
}

// SetDatasetCount records how many datasets are registered.
func (m *Metrics) SetDatasetCount(n int) {
	m.DatasetsLoaded.Set(float64(n))
}

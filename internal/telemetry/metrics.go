// Package telemetry exposes Prometheus collectors for dataset loads, cache
// lookups and transport requests.
package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "perfdash"

type Metrics struct {
	registry *prometheus.Registry

	datasetLoads        *prometheus.CounterVec
	datasetLoadDuration prometheus.Histogram
	datasetRecords      prometheus.Gauge
	datasetLoadedAt     prometheus.Gauge

	cacheLookups *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	grpcRequests *prometheus.CounterVec
	grpcDuration *prometheus.HistogramVec
}

// New registers all collectors, plus the Go runtime and process collectors,
// on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		datasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "loads_total",
			Help:      "Workbook loads by result.",
		}, []string{"result"}),
		datasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "load_duration_seconds",
			Help:      "Time spent reading the workbook and replacing the table.",
			Buckets:   prometheus.DefBuckets,
		}),
		datasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "records",
			Help:      "Rows in the currently served table.",
		}),
		datasetLoadedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful load.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read-through cache lookups by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		grpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "gRPC requests by method and status code.",
		}, []string{"method", "code"}),
		grpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "gRPC request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.datasetLoads,
		m.datasetLoadDuration,
		m.datasetRecords,
		m.datasetLoadedAt,
		m.cacheLookups,
		m.httpRequests,
		m.httpDuration,
		m.grpcRequests,
		m.grpcDuration,
	)
	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveLoad(ok bool, elapsed time.Duration, records int) {
	m.datasetLoadDuration.Observe(elapsed.Seconds())
	if !ok {
		m.datasetLoads.WithLabelValues("error").Inc()
		return
	}
	m.datasetLoads.WithLabelValues("ok").Inc()
	m.datasetRecords.Set(float64(records))
	m.datasetLoadedAt.SetToCurrentTime()
}

func (m *Metrics) ObserveCacheLookup(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveHTTP records one request. Route should be the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// UnaryServerInterceptor counts and times every unary call.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.grpcRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		m.grpcDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestObserveLoad(t *testing.T) {
	m := New()

	m.ObserveLoad(true, 20*time.Millisecond, 5)
	m.ObserveLoad(false, time.Millisecond, 0)
	m.ObserveLoad(true, 10*time.Millisecond, 7)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.datasetLoads.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.datasetLoads.WithLabelValues("error")))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.datasetRecords))
	assert.Greater(t, testutil.ToFloat64(m.datasetLoadedAt), float64(0))
}

func TestObserveCacheLookup(t *testing.T) {
	m := New()

	m.ObserveCacheLookup("hit")
	m.ObserveCacheLookup("hit")
	m.ObserveCacheLookup("miss")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestUnaryServerInterceptor(t *testing.T) {
	m := New()
	interceptor := m.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/perfdash.v1.PerformanceReport/GetBreakdown"}

	_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "no data for this selection")
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.grpcRequests.WithLabelValues(info.FullMethod, "OK")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.grpcRequests.WithLabelValues(info.FullMethod, "NotFound")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/api/v1/summary/{dimension}", http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `perfdash_http_requests_total{code="200",method="GET",route="/api/v1/summary/{dimension}"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/godilite/perf-dashboard/internal/grpc/mocks"
	"github.com/godilite/perf-dashboard/internal/service"
	"github.com/godilite/perf-dashboard/pkg/cache"
)

func startBufServer(t *testing.T, svc PerformanceService, interceptors ...grpc.UnaryServerInterceptor) *PerformanceReportClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	RegisterPerformanceReportServer(srv, newTestHandlers(svc, cache.Nop{}))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewPerformanceReportClient(conn)
}

func TestServiceDescRoundTrip(t *testing.T) {
	mockService := &mocks.MockPerformanceService{
		SummarizeFunc: func(ctx context.Context, by service.GroupBy) (service.Summary, error) {
			s := opsSummary()
			s.GroupBy = by
			return s, nil
		},
		DivisionsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"Finance", "Ops"}, nil
		},
		BreakdownFunc: func(ctx context.Context, d, s string) (service.Breakdown, error) {
			return service.Breakdown{}, service.ErrNoData
		},
	}

	var methods []string
	record := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		methods = append(methods, info.FullMethod)
		return handler(ctx, req)
	}

	client := startBufServer(t, mockService, record)
	ctx := context.Background()

	summary, err := client.Summary(ctx, service.GroupByStakeholder)
	require.NoError(t, err)
	assert.Equal(t, service.GroupByStakeholder, summary.GroupBy)
	require.Len(t, summary.Groups, 1)
	assert.Equal(t, "73.3%", summary.Groups[0].Label)

	divisions, err := client.Divisions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Finance", "Ops"}, divisions)

	_, err = client.Breakdown(ctx, "Sales", "B")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.Summary(ctx, service.GroupBy("name"))
	assert.ErrorIs(t, err, service.ErrInvalidGroupBy)

	assert.Equal(t, []string{
		"/perfdash.v1.PerformanceReport/GetStakeholderSummary",
		"/perfdash.v1.PerformanceReport/ListDivisions",
		"/perfdash.v1.PerformanceReport/GetBreakdown",
	}, methods)
}
